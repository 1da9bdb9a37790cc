package markdown

import (
	"html"
	"html/template"
	"strings"

	"mvdan.cc/xurls/v2"
)

var reURL = xurls.Strict()

// RenderComment turns a plain-text comment into HTML: everything is
// escaped, URLs become links and newlines become line breaks.
func RenderComment(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range reURL.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		url := html.EscapeString(text[loc[0]:loc[1]])
		b.WriteString(`<a href="`)
		b.WriteString(url)
		b.WriteString(`" rel="nofollow noopener" target="_blank">`)
		b.WriteString(url)
		b.WriteString(`</a>`)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))

	return template.HTML(strings.ReplaceAll(b.String(), "\n", "<br>\n"))
}
