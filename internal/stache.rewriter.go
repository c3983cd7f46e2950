package internal

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// TemplateSource renders named templates for include tags. The returned
// text is final and is spliced in without further scanning.
type TemplateSource interface {
	Template(ctx context.Context, name string, scope Value) (string, error)
}

// PhaseRecorder receives start and end marks around rendering phases.
type PhaseRecorder interface {
	Start(label string)
	End(label string)
}

type nopRecorder struct{}

func (nopRecorder) Start(string) {}
func (nopRecorder) End(string)   {}

// RewriterConfig holds rewriter configuration options.
type RewriterConfig struct {
	MaxDepth int // Maximum nesting depth (0 = unlimited)
}

// DefaultRewriterConfig returns the default rewriter configuration.
func DefaultRewriterConfig() RewriterConfig {
	return RewriterConfig{
		MaxDepth: DefaultMaxDepth,
	}
}

// Rewriter resolves tags in content by repeated scan and splice.
// It holds no per-call state and is safe for concurrent use when its
// TemplateSource and PhaseRecorder are.
type Rewriter struct {
	templates TemplateSource
	config    RewriterConfig
	logger    *zap.Logger
}

// NewRewriter creates a rewriter. A nil templates source leaves include
// tags unresolved.
func NewRewriter(templates TemplateSource, config RewriterConfig, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRewriterCreated)

	return &Rewriter{
		templates: templates,
		config:    config,
		logger:    logger,
	}
}

// Rewrite renders content against scope. Compound tags are resolved first,
// left to right, then simple value tags.
func (r *Rewriter) Rewrite(ctx context.Context, content string, scope Value, phases PhaseRecorder) (string, error) {
	if phases == nil {
		phases = nopRecorder{}
	}

	depth := DepthFrom(ctx) + 1
	if r.config.MaxDepth > 0 && depth > r.config.MaxDepth {
		return "", &DepthError{Depth: depth, MaxDepth: r.config.MaxDepth}
	}
	ctx = WithDepth(ctx, depth)

	if content == "" {
		return content, nil
	}

	r.logger.Debug(LogMsgRewriteStart,
		zap.Int(LogFieldContentLen, len(content)),
		zap.Int(LogFieldDepth, depth))

	content, err := r.resolveCompound(ctx, content, scope, phases)
	if err != nil {
		return "", err
	}

	content, err = r.resolveSimple(content, scope, phases)
	if err != nil {
		return "", err
	}

	r.logger.Debug(LogMsgRewriteEnd, zap.Int(LogFieldDepth, depth))
	return content, nil
}

// resolveCompound handles conditionals, loops and includes. Matches are
// taken from content as it enters the pass; each one is relocated by its
// first literal occurrence since earlier splices shift offsets.
func (r *Rewriter) resolveCompound(ctx context.Context, content string, scope Value, phases PhaseRecorder) (string, error) {
	phases.Start(PhaseMain)
	defer phases.End(PhaseMain)

	tags := ScanCompound(content)
	r.logger.Debug(LogMsgCompoundTagsFound, zap.Int(LogFieldCount, len(tags)))

	var err error
	for _, tag := range tags {
		start := strings.Index(content, tag.Literal)
		if start < 0 {
			r.logger.Debug(LogMsgTagVanished, zap.String(LogFieldTag, tag.Literal))
			continue
		}

		switch tag.Kind {
		case TagKindConditional, TagKindConditionalNegated:
			content, err = r.resolveConditional(ctx, content, tag, start, scope, phases)
		case TagKindLoop:
			content, err = r.resolveLoop(ctx, content, tag, start, scope, phases)
		case TagKindInclude:
			content, err = r.resolveInclude(ctx, content, tag, scope)
		}
		if err != nil {
			return "", err
		}
	}

	return content, nil
}

// blockBounds locates the closing tag of the block opened at start.
// Layout: start{{open}}bodyStart ... bodyEnd{{close}}end
func (r *Rewriter) blockBounds(content string, tag Tag, start int) (bodyStart, bodyEnd, end int, ok bool) {
	closeTag, _ := CloseTag(tag)
	bodyStart = start + len(tag.Literal)

	rel := strings.Index(content[bodyStart:], closeTag)
	if rel < 0 {
		r.logger.Debug(LogMsgUnterminatedBlock,
			zap.String(LogFieldTag, tag.Literal),
			zap.String(LogFieldKind, tag.Kind.String()))
		return 0, 0, 0, false
	}

	bodyEnd = bodyStart + rel
	end = bodyEnd + len(closeTag)
	return bodyStart, bodyEnd, end, true
}

func (r *Rewriter) resolveConditional(ctx context.Context, content string, tag Tag, start int, scope Value, phases PhaseRecorder) (string, error) {
	phases.Start(PhaseConditional)
	defer phases.End(PhaseConditional)

	bodyStart, bodyEnd, end, ok := r.blockBounds(content, tag, start)
	if !ok {
		return content, nil
	}

	negated := tag.Kind == TagKindConditionalNegated
	truthy := Truthy(Resolve(scope, tag.Identifier))
	r.logger.Debug(LogMsgConditionEval,
		zap.String(LogFieldIdentifier, tag.Identifier),
		zap.Bool(LogFieldNegated, negated),
		zap.Bool(LogFieldTruthy, truthy))

	var body string
	if negated != truthy {
		var err error
		body, err = r.Rewrite(ctx, content[bodyStart:bodyEnd], scope, phases)
		if err != nil {
			return "", err
		}
	}

	return content[:start] + body + content[end:], nil
}

func (r *Rewriter) resolveLoop(ctx context.Context, content string, tag Tag, start int, scope Value, phases PhaseRecorder) (string, error) {
	phases.Start(PhaseLoop)
	defer phases.End(PhaseLoop)

	bodyStart, bodyEnd, end, ok := r.blockBounds(content, tag, start)
	if !ok {
		return content, nil
	}

	value := Resolve(scope, tag.Identifier)
	if !value.IsListLike() {
		r.logger.Debug(LogMsgLoopSourceInvalid,
			zap.String(LogFieldIdentifier, tag.Identifier),
			zap.String(LogFieldValueKind, value.Kind().String()))
		return content[:start] + content[end:], nil
	}

	body := content[bodyStart:bodyEnd]
	elements := value.Elements()

	var sb strings.Builder
	rendered := 0
	for i, item := range elements {
		if !item.IsRecordLike() {
			r.reportElementMismatch(ctx, tag.Identifier, i, item)
			continue
		}
		out, err := r.Rewrite(ctx, body, item, phases)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
		rendered++
	}

	r.logger.Debug(LogMsgLoopExpanded,
		zap.String(LogFieldIdentifier, tag.Identifier),
		zap.Int(LogFieldIterations, rendered),
		zap.Int(LogFieldSkipped, len(elements)-rendered))

	return content[:start] + sb.String() + content[end:], nil
}

// resolveInclude replaces every occurrence of the include tag, not only the
// one at the current position.
func (r *Rewriter) resolveInclude(ctx context.Context, content string, tag Tag, scope Value) (string, error) {
	if r.templates == nil {
		r.logger.Debug(LogMsgNoTemplateSource, zap.String(LogFieldIdentifier, tag.Identifier))
		return content, nil
	}

	rendered, err := r.templates.Template(ctx, tag.Identifier, scope)
	if err != nil {
		return "", err
	}

	r.logger.Debug(LogMsgTemplateIncluded, zap.String(LogFieldIdentifier, tag.Identifier))
	return strings.ReplaceAll(content, tag.Literal, rendered), nil
}

// resolveSimple substitutes {{identifier}} tags. Absent values leave the tag
// in place for a later pass; like includes, replacement is global.
func (r *Rewriter) resolveSimple(content string, scope Value, phases PhaseRecorder) (string, error) {
	phases.Start(PhaseSingles)
	defer phases.End(PhaseSingles)

	tags := ScanSimple(content)
	r.logger.Debug(LogMsgSimpleTagsFound, zap.Int(LogFieldCount, len(tags)))

	for _, tag := range tags {
		value := Resolve(scope, tag.Identifier)
		if value.IsAbsent() {
			r.logger.Debug(LogMsgValueAbsent, zap.String(LogFieldIdentifier, tag.Identifier))
			continue
		}
		if value.IsListLike() {
			return "", &ArrayValueError{Identifier: tag.Identifier, Listing: value.String()}
		}
		content = strings.ReplaceAll(content, tag.Literal, value.String())
	}

	return content, nil
}

func (r *Rewriter) reportElementMismatch(ctx context.Context, identifier string, index int, item Value) {
	r.logger.Warn(LogMsgLoopElementSkipped,
		zap.String(LogFieldIdentifier, identifier),
		zap.Int(LogFieldIndex, index),
		zap.String(LogFieldValueKind, item.Kind().String()))

	if c := CollectorFrom(ctx); c != nil {
		c.Add(Diagnostic{
			Kind:       DiagnosticLoopElementTypeMismatch,
			Identifier: identifier,
			Index:      index,
			ValueKind:  item.Kind(),
		})
	}
}
