package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/utils"
	"github.com/Masterminds/sprig"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/teacat/noire"
)

//go:embed src
var embeddedTemplateFS embed.FS

//go:embed public
var PublicFS embed.FS

// Every page template is parsed together with all layouts and includes, so
// pages can use any shared block by name.
var sharedTemplateGlobs = []string{"src/layouts/*.html", "src/include/*.html"}

var embeddedTemplates map[string]*template.Template

type templateError struct {
	name string
	err  error
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, []templateError) {
	pages, err := fs.Glob(fsys, "src/*.html")
	if err != nil {
		return nil, []templateError{{name: "src", err: err}}
	}

	parsed := make(map[string]*template.Template, len(pages))
	var errs []templateError
	for _, page := range pages {
		name := path.Base(page)
		t, err := template.New(name).
			Funcs(sprig.FuncMap()).
			Funcs(BlogTemplateFuncs).
			ParseFS(fsys, append(slices.Clone(sharedTemplateGlobs), page)...)
		if err != nil {
			errs = append(errs, templateError{name: name, err: err})
			continue
		}
		parsed[name] = t
	}
	slices.SortFunc(errs, func(a, b templateError) int {
		return strings.Compare(a.name, b.name)
	})
	return parsed, errs
}

// Init parses the embedded templates and panics if any of them is broken.
func Init() {
	var errs []templateError
	embeddedTemplates, errs = parseTemplates(embeddedTemplateFS)
	for _, e := range errs {
		logging.Error().Str("template", e.name).Err(e.err).Msg("Failed to parse template")
	}
	if len(errs) > 0 {
		panic("Failed to parse templates; see above")
	}
}

// GetTemplate returns a parsed page template. With dev.live_templates set,
// templates are re-read from src/templates on every call.
func GetTemplate(name string) *template.Template {
	set := embeddedTemplates
	if config.Config.DevConfig.LiveTemplates {
		var errs []templateError
		set, errs = parseTemplates(os.DirFS("src/templates"))
		for _, e := range errs {
			if e.name == name {
				panic(oops.New(e.err, "Error in template %s", name))
			}
		}
	} else if set == nil {
		Init()
		set = embeddedTemplates
	}

	t, ok := set[name]
	if !ok {
		panic(oops.New(nil, "Template not found: %s", name))
	}
	return t
}

// Public is the static file tree served under /public.
func Public() fs.FS {
	if config.Config.DevConfig.LiveTemplates {
		return os.DirFS("src/templates/public")
	}
	return utils.Must1(fs.Sub(PublicFS, "public"))
}

var BlogTemplateFuncs = template.FuncMap{
	"absolutedate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006, 3:04pm")
	},
	"absoluteshortdate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006")
	},
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
	"relativedate": func(t time.Time) string {
		return humanize.Time(t)
	},
	"timehtml": func(formatted string, t time.Time) template.HTML {
		iso := t.UTC().Format(time.RFC3339)
		return template.HTML(fmt.Sprintf(`<time datetime="%s">%s</time>`, iso, template.HTMLEscapeString(formatted)))
	},
	"count": func(n int) string {
		return humanize.Comma(int64(n))
	},

	"alpha": func(alpha float64, color noire.Color) noire.Color {
		color.Alpha = alpha
		return color
	},
	"brighten": func(amount float64, color noire.Color) noire.Color {
		return color.Tint(amount)
	},
	"darken": func(amount float64, color noire.Color) noire.Color {
		return color.Shade(amount)
	},
	"color2css": func(color noire.Color) template.CSS {
		return template.CSS(color.HTML())
	},
	"hex2color": func(hex string) (noire.Color, error) {
		if len(hex) < 6 {
			return noire.Color{}, fmt.Errorf("hex color was invalid: %v", hex)
		}
		return noire.NewHex(hex), nil
	},
	"lightness": func(lightness float64, color noire.Color) noire.Color {
		h, s, _, a := color.HSLA()
		return noire.NewHSLA(h, s, lightness*100, a)
	},

	"static": func(filepath string) string {
		return blogurl.BuildPublic(filepath)
	},
	"string2uuid": func(s string) string {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s)).URN()
	},
	"comment": RenderCommentText,
	"noescape": func(str string) template.HTML {
		return template.HTML(str)
	},
}
