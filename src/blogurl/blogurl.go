package blogurl

import (
	"net/url"
	"strings"

	"git.blogfront.dev/blogfront/src/config"
)

const StaticPath = "/public"

var baseUrl string

func init() {
	SetGlobalBaseUrl(config.Config.BaseUrl)
}

// SetGlobalBaseUrl changes the origin every Build function produces. The
// website calls it after loading config.
func SetGlobalBaseUrl(fullBaseUrl string) {
	baseUrl = strings.TrimRight(fullBaseUrl, "/")
}

type Q struct {
	Name  string
	Value string
}

func Url(path string, query []Q) string {
	result := baseUrl + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func StaticUrl(path string, query []Q) string {
	return Url(StaticPath+"/"+trim(path), query)
}

// Absolute puts a request URI (path and query) under the base URL.
func Absolute(requestURI string) string {
	return baseUrl + "/" + trim(requestURI)
}

// PathOf strips the origin from a built URL, for redirects that should stay
// on whatever host the request came in on.
func PathOf(fullUrl string) string {
	parsed, err := url.Parse(fullUrl)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	if parsed.RawQuery != "" {
		return parsed.EscapedPath() + "?" + parsed.RawQuery
	}
	return parsed.EscapedPath()
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}

func escapeSegment(segment string) string {
	return url.PathEscape(segment)
}
