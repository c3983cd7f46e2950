package main

// Command names
const (
	CmdNameRender  = "render"
	CmdNameStore   = "store"
	CmdNamePut     = "put"
	CmdNameGet     = "get"
	CmdNameList    = "list"
	CmdNameDelete  = "delete"
	CmdNameVersion = "version"
)

// Flag names - long form
const (
	FlagTemplate       = "template"
	FlagData           = "data"
	FlagDataFile       = "data-file"
	FlagOutput         = "output"
	FlagInclude        = "include"
	FlagManifest       = "manifest"
	FlagManifestPrefix = "manifest-prefix"
	FlagStore          = "store"
	FlagDSN            = "dsn"
	FlagProfile        = "profile"
	FlagStrip          = "strip"
	FlagBasePath       = "base-path"
	FlagMaxDepth       = "max-depth"
	FlagPrefix         = "prefix"
	FlagFormat         = "format"
	FlagLogLevel       = "log-level"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagIncludeShort  = "i"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput   = "-" // stdout
	FlagDefaultFormat   = "text"
	FlagDefaultStore    = "sqlite"
	FlagDefaultLogLevel = "warn"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeUsageError   = 2
	ExitCodeRenderError  = 3
	ExitCodeInputError   = 4
	ExitCodeStorageError = 5
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgMissingTemplate    = "template source required"
	ErrMsgInvalidData        = "invalid data"
	ErrMsgInvalidInclude     = "include must be NAME=PATH"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgRenderFailed       = "template rendering failed"
	ErrMsgRegisterFailed     = "template registration failed"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgInvalidLogLevel    = "invalid log level"
	ErrMsgMissingDSN         = "storage requires --dsn"
	ErrMsgOpenStorageFailed  = "failed to open storage"
	ErrMsgStorageFailed      = "storage operation failed"
	ErrMsgManifestNoStorage  = "--manifest requires --store"
	ErrMsgJSONMarshalFailed  = "failed to marshal JSON"
)

// Help text
const (
	CLIName        = "stache"
	CLIDescription = "Render {{tag}} templates from the command line"
	CLILong        = `stache renders templates built from {{name}}, {{if:flag}}, {{for:items}}
and {{template:name}} tags against JSON or YAML data.

Templates for {{template:...}} tags come from --include files or from a
template store (memory, sqlite or postgres) managed with "stache store".`

	RenderShort   = "Render a template with data"
	RenderExample = `  stache render -t page.html -d '{"title": "Home"}'
  stache render -t page.html -f data.yaml -i header=partials/header.html
  cat page.html | stache render -t - -d 'title: Home' --strip
  stache render -t page.html --store sqlite --dsn templates.db --manifest manifest.json -o out.html`

	StoreShort   = "Manage templates in a storage backend"
	PutShort     = "Save a template from a file (or - for stdin)"
	GetShort     = "Print a stored template"
	ListShort    = "List stored templates"
	DeleteShort  = "Delete a stored template"
	VersionShort = "Show version information"
)

// Version output
const (
	VersionTextTemplate = "stache version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFileName    = "versions.yaml"
)

// Report formats
const (
	FmtErrorWithCause  = "%s: %v"
	FmtProfileHeader   = "%-12s %8s %14s\n"
	FmtProfileRow      = "%-12s %8d %14s\n"
	FmtDiagnostic      = "warning: %s %q element %d is %s, skipped\n"
	FmtStoredSaved     = "saved %s v%d\n"
	FmtStoredListRow   = "%s\tv%d\t%s\n"
	FmtStoredDeleted   = "deleted %s\n"
	ProfileColumnLabel = "PHASE"
	ProfileColumnCount = "COUNT"
	ProfileColumnTotal = "TOTAL"
	IncludeSeparator   = "="
	TimestampFormat    = "2006-01-02T15:04:05Z07:00"
)
