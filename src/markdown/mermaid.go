package markdown

import (
	"bytes"
	gohtml "html"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ----------------------
// AST transformer
// ----------------------

// mermaidTransformer swaps ```mermaid fences for MermaidNodes before the
// highlighter gets a chance to colour them.
type mermaidTransformer struct{}

var _ parser.ASTTransformer = mermaidTransformer{}

func (t mermaidTransformer) Transform(doc *gast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var fences []*gast.FencedCodeBlock
	gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if fence, ok := n.(*gast.FencedCodeBlock); ok {
			if string(bytes.ToLower(fence.Language(source))) == "mermaid" {
				fences = append(fences, fence)
			}
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})

	for _, fence := range fences {
		var src bytes.Buffer
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			src.Write(line.Value(source))
		}

		node := NewMermaid(src.String())
		fence.Parent().ReplaceChild(fence.Parent(), fence, node)
	}
}

// ----------------------
// AST node
// ----------------------

type MermaidNode struct {
	gast.BaseBlock
	Source string
}

var _ gast.Node = &MermaidNode{}

func (n *MermaidNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Source": n.Source}, nil)
}

var KindMermaid = gast.NewNodeKind("Mermaid")

func (n *MermaidNode) Kind() gast.NodeKind {
	return KindMermaid
}

func NewMermaid(source string) *MermaidNode {
	return &MermaidNode{Source: source}
}

// ----------------------
// Renderer
// ----------------------

type MermaidHTMLRenderer struct {
	html.Config
}

func NewMermaidHTMLRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &MermaidHTMLRenderer{
		Config: html.NewConfig(),
	}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *MermaidHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaid, r.renderMermaid)
}

func (r *MermaidHTMLRenderer) renderMermaid(w util.BufWriter, source []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if entering {
		escaped := gohtml.EscapeString(n.(*MermaidNode).Source)
		for _, class := range []string{DiagramClassLight, DiagramClassDark} {
			w.WriteString(`<pre class="`)
			w.WriteString(class)
			w.WriteString(`">`)
			w.WriteString(escaped)
			w.WriteString("</pre>\n")
		}
	}
	return gast.WalkSkipChildren, nil
}

// ----------------------
// Extension
// ----------------------

type MermaidExtension struct{}

func (e MermaidExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(mermaidTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewMermaidHTMLRenderer(), 500),
	))
}
