// Package authkit provides session credential issuance, verification and
// rotation for HTTP services, with refresh token reuse detection and
// rate-limiting middleware. Applications assemble it through the builder:
//
//	application, err := authkit.New().
//		WithConfig(cfg).
//		WithAuth().
//		WithRateLimit().
//		Build()
package authkit

import (
	"github.com/cgchat/authkit/app"
)

type App = app.App

type Builder = app.AppBuilder

// New starts a builder with nothing enabled; callers opt in to the auth
// stack and rate limiting explicitly.
func New() *Builder {
	return app.NewApp()
}
