package stache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RegisterTemplate(t *testing.T) {
	t.Run("register and list", func(t *testing.T) {
		engine := MustNew()
		require.NoError(t, engine.RegisterTemplate("b", "B"))
		require.NoError(t, engine.RegisterTemplate("a", "A"))

		assert.True(t, engine.HasTemplate("a"))
		assert.False(t, engine.HasTemplate("c"))
		assert.Equal(t, []string{"a", "b"}, engine.ListTemplates())
		assert.Equal(t, 2, engine.TemplateCount())
	})

	t.Run("empty name", func(t *testing.T) {
		engine := MustNew()
		err := engine.RegisterTemplate("", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyTemplateName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		engine := MustNew()
		require.NoError(t, engine.RegisterTemplate("page", "one"))

		err := engine.RegisterTemplate("page", "two")
		require.Error(t, err)
		assert.Equal(t, ErrKindTemplateExists, metadata(t, err, MetaKeyKind))

		err = engine.RegisterStoredTemplate("page", "key")
		require.Error(t, err)
	})

	t.Run("must register panics on duplicate", func(t *testing.T) {
		engine := MustNew()
		engine.MustRegisterTemplate("page", "one")
		assert.Panics(t, func() { engine.MustRegisterTemplate("page", "two") })
	})

	t.Run("unregister", func(t *testing.T) {
		engine := MustNew()
		engine.MustRegisterTemplate("page", "one")

		assert.True(t, engine.UnregisterTemplate("page"))
		assert.False(t, engine.UnregisterTemplate("page"))
		assert.False(t, engine.HasTemplate("page"))

		require.NoError(t, engine.RegisterTemplate("page", "again"))
	})

	t.Run("concurrent registration", func(t *testing.T) {
		engine := MustNew()
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- engine.RegisterTemplate("shared", "x")
			}()
		}
		wg.Wait()
		close(errs)

		var ok int
		for err := range errs {
			if err == nil {
				ok++
			}
		}
		assert.Equal(t, 1, ok)
	})
}

func TestEngine_RegisterManifest(t *testing.T) {
	ctx := context.Background()

	newStorage := func(t *testing.T) *MemoryStorage {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "views/header.html", Source: "<h1>{{title}}</h1>"}))
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "views/partials/footer.html", Source: "<p>{{year}}</p>"}))
		return storage
	}

	t.Run("json manifest", func(t *testing.T) {
		engine := MustNew(WithStorage(newStorage(t)))

		names, err := engine.RegisterManifest("views", []byte(`["header.html", "partials/footer.html"]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"header", "footer"}, names)

		out, err := engine.Render(ctx, "{{template:header}}{{template:footer}}", map[string]any{
			"title": "Hi",
			"year":  2024,
		})
		require.NoError(t, err)
		assert.Equal(t, "<h1>Hi</h1><p>2024</p>", out)
	})

	t.Run("yaml manifest without prefix", func(t *testing.T) {
		engine := MustNew(WithStorage(newStorage(t)))

		names, err := engine.RegisterManifest("", []byte("- views/header.html\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"header"}, names)

		out, err := engine.Render(ctx, "{{template:header}}", map[string]any{"title": "T"})
		require.NoError(t, err)
		assert.Equal(t, "<h1>T</h1>", out)
	})

	t.Run("undecodable", func(t *testing.T) {
		engine := MustNew()
		_, err := engine.RegisterManifest("", []byte(`{"not": "a list"}`))
		require.Error(t, err)
		assert.Equal(t, ErrKindManifestDecode, metadata(t, err, MetaKeyKind))
	})

	t.Run("empty", func(t *testing.T) {
		engine := MustNew()
		_, err := engine.RegisterManifest("", []byte(`[]`))
		require.Error(t, err)
		assert.Equal(t, ErrMsgManifestEmpty, metadata(t, err, MetaKeyReason))
	})

	t.Run("duplicate alias stops registration", func(t *testing.T) {
		engine := MustNew()
		names, err := engine.RegisterManifest("", []byte(`["a/page.html", "b/page.html"]`))
		require.Error(t, err)
		assert.Equal(t, []string{"page"}, names)
	})
}
