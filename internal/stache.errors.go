package internal

import "fmt"

// ArrayValueError reports a simple tag that resolved to a sequence or mapping.
type ArrayValueError struct {
	Identifier string
	Listing    string
}

// Error implements the error interface.
func (e *ArrayValueError) Error() string {
	return fmt.Sprintf(ErrFmtArrayValue, ErrMsgArrayValue, e.Identifier, e.Listing)
}

// DepthError reports a render nested deeper than the configured maximum.
type DepthError struct {
	Depth    int
	MaxDepth int
}

// Error implements the error interface.
func (e *DepthError) Error() string {
	return fmt.Sprintf(ErrFmtDepth, ErrMsgMaxDepthExceeded, e.Depth, e.MaxDepth)
}
