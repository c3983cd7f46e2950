package internal

import "regexp"

// Tag delimiters and keywords.
const (
	TagOpen       = "{{"
	TagClose      = "}}"
	PrefixIf      = "if:"
	MarkerNot     = "!"
	PrefixIfEnd   = "/if:"
	PrefixFor     = "for:"
	PrefixForEnd  = "/for:"
	PrefixInclude = "template:"
	PathSeparator = "."
)

// identifierClass is the character class of a tag identifier: letters,
// digits, apostrophe and the path separator.
const identifierClass = `[A-Za-z0-9'.]+`

// TagKind classifies a matched tag.
type TagKind int

// Tag kinds
const (
	TagKindSimple TagKind = iota
	TagKindConditional
	TagKindConditionalNegated
	TagKindLoop
	TagKindInclude
)

// Tag kind names for logging
const (
	TagKindNameSimple             = "simple"
	TagKindNameConditional        = "conditional"
	TagKindNameConditionalNegated = "conditional_negated"
	TagKindNameLoop               = "loop"
	TagKindNameInclude            = "include"
)

// String returns the string representation of the tag kind
func (k TagKind) String() string {
	switch k {
	case TagKindConditional:
		return TagKindNameConditional
	case TagKindConditionalNegated:
		return TagKindNameConditionalNegated
	case TagKindLoop:
		return TagKindNameLoop
	case TagKindInclude:
		return TagKindNameInclude
	default:
		return TagKindNameSimple
	}
}

// Tag is a single matched occurrence in the content.
type Tag struct {
	Kind       TagKind
	Identifier string
	Literal    string
}

var (
	// compoundPattern matches every opening compound tag. The alternation
	// order matters: "if:" is tried before "if:!" and falls through to it
	// when the identifier class rejects the '!'.
	compoundPattern = regexp.MustCompile(
		regexp.QuoteMeta(TagOpen) + `(` +
			regexp.QuoteMeta(PrefixFor) + `|` +
			regexp.QuoteMeta(PrefixInclude) + `|` +
			regexp.QuoteMeta(PrefixIf) + `|` +
			regexp.QuoteMeta(PrefixIf+MarkerNot) +
			`)(` + identifierClass + `)` + regexp.QuoteMeta(TagClose))

	simplePattern = regexp.MustCompile(
		regexp.QuoteMeta(TagOpen) + `(` + identifierClass + `)` + regexp.QuoteMeta(TagClose))

	// anyTagPattern matches any delimited run, including tags the engine
	// left unresolved.
	anyTagPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)
)

// ScanCompound returns the opening compound tags of content in the order
// they occur.
func ScanCompound(content string) []Tag {
	matches := compoundPattern.FindAllStringSubmatch(content, -1)
	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, Tag{
			Kind:       compoundKind(m[1]),
			Identifier: m[2],
			Literal:    m[0],
		})
	}
	return tags
}

// ScanSimple returns the simple value tags of content in the order they occur.
func ScanSimple(content string) []Tag {
	matches := simplePattern.FindAllStringSubmatch(content, -1)
	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, Tag{
			Kind:       TagKindSimple,
			Identifier: m[1],
			Literal:    m[0],
		})
	}
	return tags
}

// StripTags removes every delimited tag from content.
func StripTags(content string) string {
	return anyTagPattern.ReplaceAllLiteralString(content, "")
}

// CloseTag builds the closing tag text expected for an opening tag.
// It returns false for kinds that have no closing tag.
func CloseTag(tag Tag) (string, bool) {
	switch tag.Kind {
	case TagKindConditional:
		return TagOpen + PrefixIfEnd + tag.Identifier + TagClose, true
	case TagKindConditionalNegated:
		return TagOpen + PrefixIfEnd + MarkerNot + tag.Identifier + TagClose, true
	case TagKindLoop:
		return TagOpen + PrefixForEnd + tag.Identifier + TagClose, true
	default:
		return "", false
	}
}

// SimpleTag builds the literal text of a simple value tag.
func SimpleTag(identifier string) string {
	return TagOpen + identifier + TagClose
}

func compoundKind(prefix string) TagKind {
	switch prefix {
	case PrefixFor:
		return TagKindLoop
	case PrefixInclude:
		return TagKindInclude
	case PrefixIf + MarkerNot:
		return TagKindConditionalNegated
	default:
		return TagKindConditional
	}
}
