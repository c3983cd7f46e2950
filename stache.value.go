package stache

import "github.com/itsatony/go-stache/internal"

// Value is the closed union of shapes a substitution context can hold:
// absent, scalar, mapping, sequence or record.
type Value = internal.Value

// Kind identifies which variant a Value holds.
type Kind = internal.Kind

// Value kinds
const (
	KindAbsent   = internal.KindAbsent
	KindScalar   = internal.KindScalar
	KindMapping  = internal.KindMapping
	KindSequence = internal.KindSequence
	KindRecord   = internal.KindRecord
)

// Record is implemented by types that expose named fields to tag lookups.
// Loop elements that are records act as the scope of their iteration.
//
//	type User struct{ Name string }
//
//	func (u User) Field(name string) (any, bool) {
//	    if name == "name" {
//	        return u.Name, true
//	    }
//	    return nil, false
//	}
type Record = internal.Record

// FromAny converts plain Go data into a Value.
func FromAny(v any) Value { return internal.FromAny(v) }

// Resolve looks up a dotted path in scope, returning an absent Value when
// any segment is missing.
func Resolve(scope Value, path string) Value { return internal.Resolve(scope, path) }

// Truthy reports how a conditional tag reads v.
func Truthy(v Value) bool { return internal.Truthy(v) }
