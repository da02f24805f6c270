package binder

import (
	"github.com/roach88/quill/internal/ops"
)

// Option configures a binding run.
type Option func(*config)

type config struct {
	host            ops.Host
	funcs           FuncSource
	ids             IDGenerator
	allowVolatile   bool
	allowProcedures bool
}

func defaultConfig() config {
	return config{
		host: ops.Default(),
		ids:  UUIDv7Generator{},
	}
}

// WithHost sets the name-resolution host. Defaults to ops.Default().
func WithHost(h ops.Host) Option {
	return func(c *config) {
		c.host = h
	}
}

// WithFuncs sets the source of user-defined functions.
func WithFuncs(fs FuncSource) Option {
	return func(c *config) {
		c.funcs = fs
	}
}

// WithIDGenerator sets the session id generator.
// Use a fixed generator in tests for deterministic results.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *config) {
		c.ids = g
	}
}

// WithAllowVolatile permits volatile calls such as Now() outside user
// function bodies.
func WithAllowVolatile() Option {
	return func(c *config) {
		c.allowVolatile = true
	}
}

// WithAllowProcedures permits procedure calls such as Print() outside user
// function bodies.
func WithAllowProcedures() Option {
	return func(c *config) {
		c.allowProcedures = true
	}
}
