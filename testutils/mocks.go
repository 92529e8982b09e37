package testutils

import (
	"github.com/cgchat/authkit/services/audit"
	"github.com/cgchat/authkit/services/user"
	"github.com/stretchr/testify/mock"
)

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(event audit.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUser(id string) (*user.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}
