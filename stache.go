// Package stache renders text templates by repeatedly rewriting {{...}} tags.
//
// The tag forms are:
//
//	{{name}}                          value substitution
//	{{if:flag}}...{{/if:flag}}         conditional
//	{{if:!flag}}...{{/if:!flag}}       negated conditional
//	{{for:items}}...{{/for:items}}     loop over a sequence or mapping of records
//	{{template:header}}                include of a registered template
//
// Identifiers may be dotted paths ("user.name") and are looked up through
// mappings, records and, with a numeric segment, sequences. A tag whose
// identifier does not resolve is left in the output unchanged; call
// RemoveEmpties on the result to drop leftovers.
//
// # Basic Usage
//
//	engine := stache.MustNew()
//	out, err := engine.Render(ctx, "Hello {{if:user}}{{user.name}}{{/if:user}}", map[string]any{
//	    "user": map[string]any{"name": "Alice"},
//	})
//	// out: "Hello Alice"
//
// # Truthiness
//
// Sequences and mappings are true when non-empty. Any other value is
// stringified and is false only when it reads "false" (case-insensitive,
// surrounding whitespace ignored) or is empty. "0" is true.
//
// # Loops
//
// Each element of a loop source becomes the scope of its iteration; the
// outer scope is not visible inside the body. A mapping source iterates its
// values in key order. Elements that are not records
// or mappings are skipped and reported through RenderResult.
//
// # Templates
//
// Templates are registered inline with RegisterTemplate or by storage key
// with RegisterStoredTemplate and RegisterManifest. Included templates are
// rendered against the scope active at the include tag.
//
//	engine.MustRegisterTemplate("header", "<h1>{{title}}</h1>")
//	out, _ := engine.Render(ctx, "{{template:header}}", map[string]any{"title": "Hi"})
//
// # Storage
//
// Stored templates load from a TemplateStorage: memory, SQLite and
// PostgreSQL backends are provided, and CachedStorage wraps any of them.
//
//	storage, _ := stache.OpenStorage("sqlite", "templates.db")
//	engine := stache.MustNew(stache.WithStorage(storage))
//
// # Errors
//
// A simple tag whose value is a sequence or mapping fails the render with a
// ParseArray error (see IsParseArray). Unknown include names fail with
// TemplateUnknown, and registered templates whose body cannot be loaded
// with TemplateNotFound. Renders nested deeper than WithMaxDepth fail with
// a max depth error.
package stache
