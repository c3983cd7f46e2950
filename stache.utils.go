package stache

import (
	"regexp"
	"strings"

	"github.com/itsatony/go-stache/internal"
)

// relativeRefPattern matches href and src attributes whose value is neither
// rooted nor carries a scheme.
var relativeRefPattern = regexp.MustCompile(`(href|src)=["']([^/][^:"']*)["']`)

// Contains reports whether content holds a {{name}} tag.
func Contains(content, name string) bool {
	return strings.Contains(content, internal.SimpleTag(name))
}

// RemoveEmpties deletes every remaining {{...}} tag from content. Use it on
// rendered output to drop tags that had no value.
func RemoveEmpties(content string) string {
	return internal.StripTags(content)
}

// FixPath prefixes relative href and src attribute values in content with
// basePath. Rooted paths ("/x") and URLs ("http://x") are left alone.
// Values are rewritten with double quotes.
func FixPath(content, basePath string) string {
	return relativeRefPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := relativeRefPattern.FindStringSubmatch(match)
		return groups[1] + `="` + basePath + groups[2] + `"`
	})
}
