package internal

import (
	"context"
	"sync"
)

// DiagnosticKind names a non-fatal condition met while rendering.
type DiagnosticKind string

// Diagnostic kinds
const (
	DiagnosticLoopElementTypeMismatch DiagnosticKind = "loop_element_type_mismatch"
)

// Diagnostic is a non-fatal condition recorded during a render.
type Diagnostic struct {
	Kind       DiagnosticKind
	Identifier string
	Index      int
	ValueKind  Kind
}

// Collector accumulates diagnostics for one render call, including the
// renders of any templates it includes.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Add records a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of the recorded diagnostics in the order they
// were added.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

type contextKey int

const (
	depthKey contextKey = iota
	collectorKey
)

// WithDepth returns a context carrying the current render depth.
func WithDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey, depth)
}

// DepthFrom returns the render depth carried by ctx, 0 at the top level.
func DepthFrom(ctx context.Context) int {
	if d, ok := ctx.Value(depthKey).(int); ok {
		return d
	}
	return 0
}

// WithCollector returns a context that routes diagnostics to c.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

// CollectorFrom returns the collector carried by ctx, or nil.
func CollectorFrom(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey).(*Collector)
	return c
}
