package stache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-stache/internal"
)

// TemplateProvider resolves {{template:NAME}} tags. The returned text is
// spliced in verbatim; a provider that wants its content rendered must
// render it itself, normally by calling back into an Engine. Errors are
// returned to the caller of Render unchanged.
type TemplateProvider interface {
	Template(ctx context.Context, name string, scope Value) (string, error)
}

// Diagnostic is a non-fatal condition recorded during a render.
type Diagnostic = internal.Diagnostic

// DiagnosticKind names a diagnostic.
type DiagnosticKind = internal.DiagnosticKind

// Diagnostic kinds
const (
	DiagnosticLoopElementTypeMismatch = internal.DiagnosticLoopElementTypeMismatch
)

// Result is the output of RenderResult.
type Result struct {
	Output      string
	Diagnostics []Diagnostic
}

// Engine renders templates and owns the registry of named templates that
// include tags resolve against. An Engine is safe for concurrent use.
type Engine struct {
	config   *engineConfig
	rewriter *internal.Rewriter
	logger   *zap.Logger

	templates map[string]*templateEntry // Named templates for inclusion
	contents  map[string]string         // Loaded bodies of stored templates
	tmplMu    sync.RWMutex              // Protects templates and contents
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		config:    config,
		logger:    logger,
		templates: make(map[string]*templateEntry),
		contents:  make(map[string]string),
	}

	var source internal.TemplateSource = e
	if config.templates != nil {
		source = config.templates
	}
	e.rewriter = internal.NewRewriter(source, internal.RewriterConfig{MaxDepth: config.maxDepth}, logger)

	logger.Debug(LogMsgEngineCreated, zap.Int(LogFieldMaxDepth, config.maxDepth))
	return e, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Render renders content against data. Conditionals, loops and includes are
// resolved first, left to right, then simple value tags. Tags whose
// identifier does not resolve are left in place.
func (e *Engine) Render(ctx context.Context, content string, data map[string]any) (string, error) {
	return e.RenderValue(ctx, content, FromAny(data))
}

// RenderValue renders content against an already converted scope.
func (e *Engine) RenderValue(ctx context.Context, content string, scope Value) (string, error) {
	out, err := e.rewriter.Rewrite(ctx, content, scope, e.config.profiler)
	if err != nil {
		err = convertRewriteError(err)
		e.logger.Debug(LogMsgRenderFailed, zap.Error(err))
		return "", err
	}
	return out, nil
}

// RenderResult renders like Render and also returns the diagnostics raised
// along the way, including those from included templates.
func (e *Engine) RenderResult(ctx context.Context, content string, data map[string]any) (*Result, error) {
	collector := internal.CollectorFrom(ctx)
	if collector == nil {
		collector = &internal.Collector{}
		ctx = internal.WithCollector(ctx, collector)
	}

	out, err := e.RenderValue(ctx, content, FromAny(data))
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:      out,
		Diagnostics: collector.Diagnostics(),
	}, nil
}

// Template renders the registered template name against scope. It is the
// engine's own TemplateProvider, used for include tags unless
// WithTemplateProvider replaced it.
func (e *Engine) Template(ctx context.Context, name string, scope Value) (string, error) {
	content, err := e.templateContent(ctx, name)
	if err != nil {
		return "", err
	}

	out, err := e.rewriter.Rewrite(ctx, content, scope, e.config.profiler)
	if err != nil {
		return "", convertRewriteError(err)
	}
	return out, nil
}

// templateContent returns the raw body of a registered template, loading
// stored templates on first use.
func (e *Engine) templateContent(ctx context.Context, name string) (string, error) {
	e.tmplMu.RLock()
	entry, ok := e.templates[name]
	content, loaded := e.contents[name]
	e.tmplMu.RUnlock()

	if !ok {
		return "", NewTemplateUnknownError(name)
	}
	if !entry.stored {
		return entry.source, nil
	}
	if loaded {
		return content, nil
	}

	if e.config.storage == nil {
		return "", newNoStorageError(name)
	}

	tmpl, err := e.config.storage.Get(ctx, entry.storageKey)
	if err != nil {
		if IsTemplateNotFound(err) {
			return "", NewTemplateNotFoundError(name)
		}
		return "", err
	}

	e.tmplMu.Lock()
	// The entry may have been replaced while loading.
	if current, ok := e.templates[name]; ok && current == entry {
		e.contents[name] = tmpl.Source
	}
	e.tmplMu.Unlock()

	return tmpl.Source, nil
}
