package internal

// Phase labels reported to a PhaseRecorder
const (
	PhaseMain        = "Main"
	PhaseConditional = "Conditional"
	PhaseLoop        = "Loop"
	PhaseSingles     = "Singles"
)

// Log message constants
const (
	LogMsgRewriterCreated    = "rewriter created"
	LogMsgRewriteStart       = "starting rewrite"
	LogMsgRewriteEnd         = "rewrite complete"
	LogMsgCompoundTagsFound  = "compound tags found"
	LogMsgSimpleTagsFound    = "simple tags found"
	LogMsgTagVanished        = "tag no longer present, skipping"
	LogMsgUnterminatedBlock  = "no closing tag, block left unresolved"
	LogMsgConditionEval      = "condition evaluated"
	LogMsgLoopExpanded       = "loop expanded"
	LogMsgLoopSourceInvalid  = "loop source missing or not a sequence, block removed"
	LogMsgLoopElementSkipped = "loop element is not record-like, skipping"
	LogMsgTemplateIncluded   = "template included"
	LogMsgNoTemplateSource   = "no template source configured, include left unresolved"
	LogMsgValueAbsent        = "value absent, tag left for a later pass"
)

// Log field keys
const (
	LogFieldContentLen = "content_len"
	LogFieldDepth      = "depth"
	LogFieldCount      = "count"
	LogFieldTag        = "tag"
	LogFieldKind       = "kind"
	LogFieldIdentifier = "identifier"
	LogFieldTruthy     = "truthy"
	LogFieldNegated    = "negated"
	LogFieldIterations = "iterations"
	LogFieldSkipped    = "skipped"
	LogFieldIndex      = "index"
	LogFieldValueKind  = "value_kind"
)

// Error message constants
const (
	ErrMsgArrayValue       = "substitution value cannot be an array"
	ErrMsgMaxDepthExceeded = "maximum nesting depth exceeded"
)

// Error format strings
const (
	ErrFmtArrayValue = "%s '%s': '%s'"
	ErrFmtDepth      = "%s: %d > %d"
)

// DefaultMaxDepth bounds nested renders, including template inclusion.
const DefaultMaxDepth = 10000
