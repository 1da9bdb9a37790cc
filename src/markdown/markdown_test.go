package markdown

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("mermaid fences", func(t *testing.T) {
		html := Render("intro\n\n```mermaid\ngraph TD\n  A-->B\n```\n\noutro")
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, `<pre class="mermaid_default">`))
		assert.Equal(t, 1, strings.Count(html, `<pre class="mermaid_dark">`))
		assert.Equal(t, 2, strings.Count(html, "A--&gt;B"))
		assert.NotContains(t, html, `class="code"`)
		assert.Contains(t, html, "<p>intro</p>")
		assert.Contains(t, html, "<p>outro</p>")
	})
	t.Run("several diagrams", func(t *testing.T) {
		html := Render("```mermaid\ngraph TD\nA-->B\n```\n\n```Mermaid\npie\n\"a\": 1\n```")
		assert.Equal(t, 2, strings.Count(html, `<pre class="mermaid_default">`))
		assert.Equal(t, 2, strings.Count(html, `<pre class="mermaid_dark">`))
	})
	t.Run("fenced code with language", func(t *testing.T) {
		html := Render("```go\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n```")
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, `<pre class="code" data-lang="go">`)
		assert.Contains(t, html, "Println")
		assert.NotContains(t, html, "mermaid")
	})
	t.Run("fenced code without language", func(t *testing.T) {
		html := Render("```\nmultiple lines\n\tof code\n```")
		assert.Contains(t, html, `<pre class="code">`)
		assert.Contains(t, html, "multiple lines\n\tof code")
	})
	t.Run("gfm", func(t *testing.T) {
		html := Render("| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~")
		assert.Contains(t, html, "<table>")
		assert.Contains(t, html, "<del>gone</del>")
	})
	t.Run("headings get ids", func(t *testing.T) {
		html := Render("## Getting started")
		assert.Contains(t, html, `<h2 id="getting-started">`)
	})
	t.Run("raw html is not passed through", func(t *testing.T) {
		html := Render("<script>alert(1)</script>")
		assert.NotContains(t, html, "<script>")
	})
}

func TestWriteHighlightCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHighlightCSS(&buf))
	css := buf.String()
	assert.Contains(t, css, ".chroma")
	assert.Contains(t, css, ".dark ")
}

func TestRenderComment(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "nice post", "nice post"},
		{"escaped", "<b>bold</b> & co", "&lt;b&gt;bold&lt;/b&gt; &amp; co"},
		{
			"link",
			"see https://example.com/a?b=1&c=2 for more",
			`see <a href="https://example.com/a?b=1&amp;c=2" rel="nofollow noopener" target="_blank">https://example.com/a?b=1&amp;c=2</a> for more`,
		},
		{"newlines", "one\ntwo", "one<br>\ntwo"},
		{"no scheme", "example.com is not linked", "example.com is not linked"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, string(RenderComment(c.input)))
		})
	}
}
