package stache

import (
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-stache/internal"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	ErrMsgParseArray        = "substitution value cannot be an array"
	ErrMsgTemplateNotFound  = "cannot load template content"
	ErrMsgTemplateUnknown   = "template not registered"
	ErrMsgTemplateExists    = "template has already been registered"
	ErrMsgEmptyTemplateName = "template name cannot be empty"
	ErrMsgMaxDepthExceeded  = "maximum nesting depth exceeded"
	ErrMsgManifestDecode    = "failure decoding manifest"
	ErrMsgManifestEmpty     = "manifest lists no templates"
	ErrMsgNoStorage         = "no template storage configured"
)

// Error code constants for categorization
const (
	ErrCodeRender   = "STACHE_RENDER"
	ErrCodeRegistry = "STACHE_REGISTRY"
	ErrCodeManifest = "STACHE_MANIFEST"
)

// Error kinds, stored under MetaKeyKind so callers can tell errors apart
const (
	ErrKindParseArray       = "parse_array"
	ErrKindTemplateNotFound = "template_not_found"
	ErrKindTemplateUnknown  = "template_unknown"
	ErrKindTemplateExists   = "template_exists"
	ErrKindMaxDepth         = "max_depth"
	ErrKindManifestDecode   = "manifest_decode"
)

// NewParseArrayError creates the error for a simple tag whose value is a
// sequence or mapping. listing is the rendered contents of that value.
func NewParseArrayError(identifier, listing string) error {
	return cuserr.NewValidationError(ErrCodeRender, ErrMsgParseArray).
		WithMetadata(MetaKeyKind, ErrKindParseArray).
		WithMetadata(MetaKeyIdentifier, identifier).
		WithMetadata(MetaKeyListing, listing)
}

// NewTemplateNotFoundError creates the error for a registered template
// whose content cannot be loaded.
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplateName, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyKind, ErrKindTemplateNotFound).
		WithMetadata(MetaKeyTemplateName, name)
}

// newNoStorageError creates the TemplateNotFound error for a stored
// template rendered by an engine without storage.
func newNoStorageError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplateName, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyKind, ErrKindTemplateNotFound).
		WithMetadata(MetaKeyTemplateName, name).
		WithMetadata(MetaKeyReason, ErrMsgNoStorage)
}

// NewTemplateUnknownError creates the error for an unregistered template name.
func NewTemplateUnknownError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplateName, ErrMsgTemplateUnknown).
		WithMetadata(MetaKeyKind, ErrKindTemplateUnknown).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewTemplateExistsError creates the error for a duplicate registration.
func NewTemplateExistsError(name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgTemplateExists).
		WithMetadata(MetaKeyKind, ErrKindTemplateExists).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewEmptyTemplateNameError creates the error for registering an empty name.
func NewEmptyTemplateNameError() error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgEmptyTemplateName)
}

// NewMaxDepthError creates the error for a render nested too deeply.
func NewMaxDepthError(depth, maxDepth int) error {
	return cuserr.NewValidationError(ErrCodeRender, ErrMsgMaxDepthExceeded).
		WithMetadata(MetaKeyKind, ErrKindMaxDepth).
		WithMetadata(MetaKeyCurrentDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(maxDepth))
}

// NewManifestDecodeError creates the error for an unreadable manifest.
func NewManifestDecodeError(reason string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeManifest, ErrMsgManifestDecode)
	} else {
		err = cuserr.NewValidationError(ErrCodeManifest, ErrMsgManifestDecode)
	}
	return err.
		WithMetadata(MetaKeyKind, ErrKindManifestDecode).
		WithMetadata(MetaKeyReason, reason)
}

// errorKind returns the MetaKeyKind of err, or "".
func errorKind(err error) string {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return ""
	}
	kind, _ := customErr.GetMetadata(MetaKeyKind)
	return kind
}

// IsParseArray reports whether err is a ParseArray error.
func IsParseArray(err error) bool { return errorKind(err) == ErrKindParseArray }

// IsTemplateNotFound reports whether err is a TemplateNotFound error.
func IsTemplateNotFound(err error) bool { return errorKind(err) == ErrKindTemplateNotFound }

// IsTemplateUnknown reports whether err is a TemplateUnknown error.
func IsTemplateUnknown(err error) bool { return errorKind(err) == ErrKindTemplateUnknown }

// IsMaxDepth reports whether err is a nesting depth error.
func IsMaxDepth(err error) bool { return errorKind(err) == ErrKindMaxDepth }

// convertRewriteError maps rewriter errors onto the public taxonomy.
// Anything else, provider errors in particular, is returned unchanged.
func convertRewriteError(err error) error {
	var arrErr *internal.ArrayValueError
	if errors.As(err, &arrErr) {
		return NewParseArrayError(arrErr.Identifier, arrErr.Listing)
	}
	var depthErr *internal.DepthError
	if errors.As(err, &depthErr) {
		return NewMaxDepthError(depthErr.Depth, depthErr.MaxDepth)
	}
	return err
}
