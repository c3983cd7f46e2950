package internal

import "strings"

// Resolve walks a dotted path through scope. A segment that cannot be
// followed yields Absent; resolution never fails otherwise.
func Resolve(scope Value, path string) Value {
	current := scope
	for _, segment := range strings.Split(path, PathSeparator) {
		next, ok := current.Field(segment)
		if !ok {
			return Absent()
		}
		current = next
	}
	return current
}

// Truthy converts a resolved value to a condition outcome. Sequences and
// mappings are truthy when non-empty. Anything else is stringified, with
// empty or absent values reading as "false", and is truthy unless the
// trimmed lowercase text is exactly "false".
func Truthy(v Value) bool {
	if v.IsListLike() {
		return v.Len() > 0
	}
	text := v.String()
	if v.IsAbsent() || text == "" {
		text = BoolTextFalse
	}
	return strings.ToLower(strings.TrimSpace(text)) != BoolTextFalse
}

// BoolTextFalse is the only text that reads as a false condition.
const BoolTextFalse = "false"
