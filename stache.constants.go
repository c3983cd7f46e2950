package stache

import (
	"time"

	"github.com/itsatony/go-stache/internal"
)

// Tag syntax. Identifiers are letters, digits, apostrophes and dots.
const (
	TagOpen       = internal.TagOpen
	TagClose      = internal.TagClose
	PrefixIf      = internal.PrefixIf
	MarkerNot     = internal.MarkerNot
	PrefixIfEnd   = internal.PrefixIfEnd
	PrefixFor     = internal.PrefixFor
	PrefixForEnd  = internal.PrefixForEnd
	PrefixInclude = internal.PrefixInclude
	PathSeparator = internal.PathSeparator
)

// Profiler labels, one per rendering phase
const (
	ProfilerLabelMain        = internal.PhaseMain
	ProfilerLabelConditional = internal.PhaseConditional
	ProfilerLabelLoop        = internal.PhaseLoop
	ProfilerLabelSingles     = internal.PhaseSingles
)

// DefaultMaxDepth bounds nested renders, template inclusion included.
const DefaultMaxDepth = internal.DefaultMaxDepth

// Metadata keys attached to errors
const (
	MetaKeyKind         = "kind"
	MetaKeyIdentifier   = "identifier"
	MetaKeyListing      = "listing"
	MetaKeyTemplateName = "template_name"
	MetaKeyStorageKey   = "storage_key"
	MetaKeyCurrentDepth = "current_depth"
	MetaKeyMaxDepth     = "max_depth"
	MetaKeyReason       = "reason"
)

// Log message constants
const (
	LogMsgEngineCreated      = "engine created"
	LogMsgTemplateRegistered = "template registered"
	LogMsgTemplateRemoved    = "template unregistered"
	LogMsgManifestLoaded     = "manifest loaded"
	LogMsgRenderFailed       = "render failed"
	LogMsgCacheFlushed       = "template cache flushed"
)

// Log field keys
const (
	LogFieldTemplateName = "template_name"
	LogFieldStorageKey   = "storage_key"
	LogFieldCount        = "count"
	LogFieldMaxDepth     = "max_depth"
)

// Manifest handling
const (
	// ManifestTemplateExt is stripped from manifest entries to form aliases.
	ManifestTemplateExt = ".html"
)

// Storage driver names
const (
	StorageDriverNameMemory   = "memory"
	StorageDriverNameSQLite   = "sqlite"
	StorageDriverNamePostgres = "postgres"
)

// PostgreSQL storage defaults
const (
	PostgresTablePrefix            = "stache_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// SQLite storage defaults
const (
	SQLiteDriverName          = "sqlite"
	SQLiteTablePrefix         = "stache_"
	SQLiteDefaultQueryTimeout = 10 * time.Second
	SQLiteDefaultBusyTimeout  = 5 * time.Second
)

// Cache defaults
const (
	CacheDefaultTTL              = 5 * time.Minute
	CacheDefaultMaxEntries       = 1000
	CacheDefaultNegativeCacheTTL = 30 * time.Second
)
