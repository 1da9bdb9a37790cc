package diagram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"git.blogfront.dev/blogfront/src/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Theme  Theme
	Source string
}

type fakeRenderer struct {
	mu    sync.Mutex
	theme Theme
	calls []call
	fail  map[string]bool
}

func (f *fakeRenderer) SetTheme(theme Theme) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.theme = theme
}

func (f *fakeRenderer) Render(ctx context.Context, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Theme: f.theme, Source: source})
	if f.fail[strings.TrimSpace(source)] {
		return "", errors.New("syntax error in diagram")
	}
	return fmt.Sprintf(`<svg data-theme="%s"></svg>`, f.theme), nil
}

func TestPassOrder(t *testing.T) {
	body := markdown.Render("# Title\n\n```mermaid\ngraph TD\nA-->B\n```\n\ntext\n\n```mermaid\npie\n```")
	r := &fakeRenderer{}

	out := NewPass(r).Run(context.Background(), body)
	t.Log(out)

	require.Len(t, r.calls, 4)
	// Every light block renders before any dark one.
	assert.Equal(t, []call{
		{ThemeLight, "graph TD\nA-->B\n"},
		{ThemeLight, "pie\n"},
		{ThemeDark, "graph TD\nA-->B\n"},
		{ThemeDark, "pie\n"},
	}, r.calls)

	assert.Equal(t, 2, strings.Count(out, `<pre class="mermaid_default" data-processed="true"><svg data-theme="default"></svg></pre>`))
	assert.Equal(t, 2, strings.Count(out, `<pre class="mermaid_dark" data-processed="true"><svg data-theme="dark"></svg></pre>`))
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "<p>text</p>")
}

func TestPassFailuresAreSuppressed(t *testing.T) {
	body := markdown.Render("```mermaid\nbroken\n```\n\n```mermaid\ngraph TD\nA-->B\n```")
	r := &fakeRenderer{fail: map[string]bool{"broken": true}}

	out := NewPass(r).Run(context.Background(), body)
	assert.Len(t, r.calls, 4)
	// The broken diagram is left as source in both themes.
	assert.Contains(t, out, `<pre class="mermaid_default">broken`)
	assert.Contains(t, out, `<pre class="mermaid_dark">broken`)
	assert.Contains(t, out, `<svg data-theme="default">`)
	assert.Contains(t, out, `<svg data-theme="dark">`)
}

func TestPassNoop(t *testing.T) {
	body := markdown.Render("```mermaid\ngraph TD\nA-->B\n```")

	t.Run("no renderer", func(t *testing.T) {
		assert.Equal(t, body, NewPass(nil).Run(context.Background(), body))
		var p *Pass
		assert.Equal(t, body, p.Run(context.Background(), body))
	})

	t.Run("no diagrams", func(t *testing.T) {
		r := &fakeRenderer{}
		plain := markdown.Render("just text")
		assert.Equal(t, plain, NewPass(r).Run(context.Background(), plain))
		assert.Empty(t, r.calls)
	})

	t.Run("everything failed", func(t *testing.T) {
		r := &fakeRenderer{fail: map[string]bool{"graph TD\nA-->B": true}}
		assert.Equal(t, body, NewPass(r).Run(context.Background(), body))
	})
}

// A renderer that fails the test if the theme moves while it is rendering.
type themeCheckingRenderer struct {
	t     *testing.T
	mu    sync.Mutex
	theme Theme
}

func (r *themeCheckingRenderer) SetTheme(theme Theme) {
	r.mu.Lock()
	r.theme = theme
	r.mu.Unlock()
}

func (r *themeCheckingRenderer) Render(ctx context.Context, source string) (string, error) {
	r.mu.Lock()
	before := r.theme
	r.mu.Unlock()

	for i := 0; i < 1000; i++ {
		r.mu.Lock()
		now := r.theme
		r.mu.Unlock()
		if now != before {
			r.t.Errorf("theme changed from %s to %s mid-render", before, now)
			break
		}
	}
	return "<svg></svg>", nil
}

func TestConcurrentPasses(t *testing.T) {
	body := markdown.Render("```mermaid\ngraph TD\nA-->B\n```")
	r := &themeCheckingRenderer{t: t}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			NewPass(r).Run(context.Background(), body)
		}()
	}
	wg.Wait()
}

func TestCachedRenderer(t *testing.T) {
	inner := &fakeRenderer{}
	cache, err := OpenCache(":memory:", inner)
	require.NoError(t, err)
	defer cache.Close()
	ctx := context.Background()

	cache.SetTheme(ThemeLight)
	svg, err := cache.Render(ctx, "graph TD\nA-->B")
	require.NoError(t, err)
	assert.Contains(t, svg, `data-theme="default"`)

	again, err := cache.Render(ctx, "graph TD\nA-->B")
	require.NoError(t, err)
	assert.Equal(t, svg, again)
	assert.Len(t, inner.calls, 1)

	cache.SetTheme(ThemeDark)
	dark, err := cache.Render(ctx, "graph TD\nA-->B")
	require.NoError(t, err)
	assert.Contains(t, dark, `data-theme="dark"`)
	assert.Len(t, inner.calls, 2)

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("failures are not cached", func(t *testing.T) {
		inner.fail = map[string]bool{"broken": true}
		_, err := cache.Render(ctx, "broken")
		assert.Error(t, err)
		_, err = cache.Render(ctx, "broken")
		assert.Error(t, err)
		n, _ := cache.Len(ctx)
		assert.Equal(t, 2, n)
	})
}

func TestCacheKey(t *testing.T) {
	assert.NotEqual(t, CacheKey(ThemeLight, "a"), CacheKey(ThemeDark, "a"))
	assert.NotEqual(t, CacheKey(ThemeLight, "a"), CacheKey(ThemeLight, "b"))
	assert.Equal(t, CacheKey(ThemeLight, "a"), CacheKey(ThemeLight, "a"))
	assert.Len(t, CacheKey(ThemeLight, "a"), 64)
}

func TestMermaidCLIMissingBinary(t *testing.T) {
	m := NewMermaidCLI("/nonexistent/mmdc", 0)
	m.SetTheme(ThemeDark)
	assert.Equal(t, ThemeDark, m.Theme())
	_, err := m.Render(context.Background(), "graph TD\nA-->B")
	assert.Error(t, err)
}
