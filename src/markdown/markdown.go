package markdown

import (
	"bytes"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

// Classes the diagram pass looks for. Every mermaid fence is emitted once
// with each class; the page shows one or the other depending on the theme.
const (
	DiagramClassLight = "mermaid_default"
	DiagramClassDark  = "mermaid_dark"
)

const (
	HighlightStyleLight = "github"
	HighlightStyleDark  = "monokai"
)

var ArticleMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		MermaidExtension{},
		highlightExtension,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

var chromaOptions = []chromahtml.Option{
	chromahtml.WithClasses(true),
	chromahtml.WithPreWrapper(nopPreWrapper{}),
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(chromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			lang, ok := context.Language()
			if ok {
				w.WriteString(`<pre class="code" data-lang="`)
				w.Write(util.EscapeHTML(lang))
				w.WriteString(`">`)
			} else {
				w.WriteString(`<pre class="code">`)
			}
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)

type nopPreWrapper struct{}

var _ chromahtml.PreWrapper = nopPreWrapper{}

func (w nopPreWrapper) Start(code bool, styleAttr string) string {
	return ""
}

func (w nopPreWrapper) End(code bool) string {
	return ""
}

// Render turns an article body into HTML.
func Render(source string) string {
	var buf bytes.Buffer
	if err := ArticleMarkdown.Convert([]byte(source), &buf); err != nil {
		panic(err)
	}
	return buf.String()
}

// WriteHighlightCSS writes the stylesheet for highlighted code blocks. Dark
// rules are scoped under .dark so both palettes can live in one file.
func WriteHighlightCSS(w io.Writer) error {
	formatter := chromahtml.New(chromaOptions...)
	if err := formatter.WriteCSS(w, styles.Get(HighlightStyleLight)); err != nil {
		return err
	}

	var dark bytes.Buffer
	if err := formatter.WriteCSS(&dark, styles.Get(HighlightStyleDark)); err != nil {
		return err
	}
	for _, line := range bytes.SplitAfter(dark.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if _, err := io.WriteString(w, ".dark "); err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
