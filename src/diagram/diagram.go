package diagram

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/markdown"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Theme string

const (
	ThemeLight Theme = "default"
	ThemeDark  Theme = "dark"
)

// Renderer turns diagram source into SVG. The theme is a setting on the
// renderer rather than a per-call argument, so callers must not change it
// while a render is running.
type Renderer interface {
	SetTheme(theme Theme)
	Render(ctx context.Context, source string) (string, error)
}

var (
	selectLight = cascadia.MustCompile("pre." + markdown.DiagramClassLight)
	selectDark  = cascadia.MustCompile("pre." + markdown.DiagramClassDark)
)

// Every Pass shares this lock since renderer themes are global to the
// mmdc process configuration.
var passLock sync.Mutex

// Pass rasterizes the diagram blocks in rendered article HTML: first the
// light blocks with the light theme, then the dark blocks with the dark
// theme. A nil Renderer makes Run a no-op and leaves the blocks for the
// browser.
type Pass struct {
	Renderer Renderer
}

func NewPass(r Renderer) *Pass {
	return &Pass{Renderer: r}
}

// Run never fails. Blocks that cannot be rendered are left as they are and
// the error is logged.
func (p *Pass) Run(ctx context.Context, fragment string) string {
	if p == nil || p.Renderer == nil {
		return fragment
	}
	if !strings.Contains(fragment, markdown.DiagramClassLight) && !strings.Contains(fragment, markdown.DiagramClassDark) {
		return fragment
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("failed to parse article html for diagrams")
		return fragment
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	passLock.Lock()
	rendered := p.renderAll(ctx, body, ThemeLight, selectLight)
	rendered += p.renderAll(ctx, body, ThemeDark, selectDark)
	passLock.Unlock()

	if rendered == 0 {
		return fragment
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			logging.ExtractLogger(ctx).Warn().Err(err).Msg("failed to write article html after diagrams")
			return fragment
		}
	}
	return buf.String()
}

func (p *Pass) renderAll(ctx context.Context, root *html.Node, theme Theme, sel cascadia.Matcher) int {
	blocks := cascadia.QueryAll(root, sel)
	if len(blocks) == 0 {
		return 0
	}

	p.Renderer.SetTheme(theme)

	rendered := 0
	for _, block := range blocks {
		if ctx.Err() != nil {
			break
		}
		source := textContent(block)
		svg, err := p.Renderer.Render(ctx, source)
		if err != nil {
			logging.ExtractLogger(ctx).Warn().
				Err(err).
				Str("theme", string(theme)).
				Msg("failed to render diagram")
			continue
		}

		for block.FirstChild != nil {
			block.RemoveChild(block.FirstChild)
		}
		block.AppendChild(&html.Node{Type: html.RawNode, Data: svg})
		block.Attr = append(block.Attr, html.Attribute{Key: "data-processed", Val: "true"})
		rendered++
	}
	return rendered
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
