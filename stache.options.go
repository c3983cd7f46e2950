package stache

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	maxDepth  int
	logger    *zap.Logger
	profiler  Profiler
	storage   TemplateStorage
	templates TemplateProvider
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxDepth: DefaultMaxDepth,
		logger:   nil,
		profiler: NopProfiler{},
	}
}

// WithMaxDepth sets the maximum nesting depth for renders, counting each
// conditional body, loop iteration and included template as one level.
// Use 0 for unlimited depth.
// Default: 10000
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithProfiler attaches a profiler that receives phase start and end marks.
// Default: NopProfiler
func WithProfiler(p Profiler) Option {
	return func(c *engineConfig) {
		if p != nil {
			c.profiler = p
		}
	}
}

// WithStorage sets the backend that stored template registrations load from.
func WithStorage(s TemplateStorage) Option {
	return func(c *engineConfig) {
		c.storage = s
	}
}

// WithTemplateProvider replaces the engine's own registry as the resolver of
// template include tags.
func WithTemplateProvider(p TemplateProvider) Option {
	return func(c *engineConfig) {
		c.templates = p
	}
}
