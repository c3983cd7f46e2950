package stache

import (
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// templateEntry is one registration: either an inline source or a key into
// the configured storage.
type templateEntry struct {
	source     string
	storageKey string
	stored     bool
}

// RegisterTemplate registers source under name for {{template:name}} tags.
// Returns an error if name is empty or already registered.
func (e *Engine) RegisterTemplate(name, source string) error {
	return e.register(name, &templateEntry{source: source})
}

// MustRegisterTemplate registers a template and panics on error.
func (e *Engine) MustRegisterTemplate(name, source string) {
	if err := e.RegisterTemplate(name, source); err != nil {
		panic(err)
	}
}

// RegisterStoredTemplate registers name as an alias for key in the engine's
// storage. The body is loaded on first include and kept until Flush.
// An empty key uses name itself.
func (e *Engine) RegisterStoredTemplate(name, key string) error {
	if key == "" {
		key = name
	}
	return e.register(name, &templateEntry{storageKey: key, stored: true})
}

func (e *Engine) register(name string, entry *templateEntry) error {
	if name == "" {
		return NewEmptyTemplateNameError()
	}

	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; exists {
		return NewTemplateExistsError(name)
	}
	e.templates[name] = entry

	e.logger.Debug(LogMsgTemplateRegistered,
		zap.String(LogFieldTemplateName, name),
		zap.String(LogFieldStorageKey, entry.storageKey))
	return nil
}

// UnregisterTemplate removes a registration. Returns false if name was not
// registered.
func (e *Engine) UnregisterTemplate(name string) bool {
	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()

	if _, exists := e.templates[name]; !exists {
		return false
	}
	delete(e.templates, name)
	delete(e.contents, name)

	e.logger.Debug(LogMsgTemplateRemoved, zap.String(LogFieldTemplateName, name))
	return true
}

// HasTemplate reports whether name is registered.
func (e *Engine) HasTemplate(name string) bool {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	_, exists := e.templates[name]
	return exists
}

// ListTemplates returns the registered names, sorted.
func (e *Engine) ListTemplates() []string {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()

	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateCount returns the number of registered templates.
func (e *Engine) TemplateCount() int {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	return len(e.templates)
}

// Flush drops every loaded stored-template body so the next include reads
// storage again. A CachedStorage is invalidated as well. Registrations are
// kept.
func (e *Engine) Flush() {
	e.tmplMu.Lock()
	n := len(e.contents)
	e.contents = make(map[string]string)
	e.tmplMu.Unlock()

	if cached, ok := e.config.storage.(*CachedStorage); ok {
		cached.InvalidateAll()
	}

	e.logger.Debug(LogMsgCacheFlushed, zap.Int(LogFieldCount, n))
}

// RegisterManifest registers a stored template for each path listed in a
// manifest. data is a YAML or JSON sequence of storage keys; each key is
// registered under its base name without the .html extension, so
// "partials/header.html" becomes {{template:header}}. A non-empty prefix
// is joined to each key. Returns the registered names in manifest order.
func (e *Engine) RegisterManifest(prefix string, data []byte) ([]string, error) {
	var entries []string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, NewManifestDecodeError(err.Error(), err)
	}
	if len(entries) == 0 {
		return nil, NewManifestDecodeError(ErrMsgManifestEmpty, nil)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		key := entry
		if prefix != "" {
			key = path.Join(prefix, entry)
		}
		name := strings.TrimSuffix(path.Base(entry), ManifestTemplateExt)
		if err := e.RegisterStoredTemplate(name, key); err != nil {
			return names, err
		}
		names = append(names, name)
	}

	e.logger.Debug(LogMsgManifestLoaded, zap.Int(LogFieldCount, len(names)))
	return names, nil
}
