// Package preview derives social-preview metadata for an article page.
package preview

import (
	"fmt"
	"regexp"
	"strings"

	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/utils"
)

const DescriptionLength = 200

var REImage = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)

// ExtractImage returns the URL of the first inline markdown image in body.
func ExtractImage(body string) (string, bool) {
	match := REImage.FindStringSubmatch(body)
	if match == nil {
		return "", false
	}
	return match[1], true
}

type Site struct {
	Name   string
	Avatar string
}

// HeadTags is what an article page puts in its document head.
type HeadTags struct {
	Title       string
	SiteName    string
	OgTitle     string
	OgType      string
	Image       string
	Url         string
	Description string
	Keywords    string
	Author      string
}

func BuildHead(article *models.Article, image string, site Site, url string) HeadTags {
	if image == "" {
		image = site.Avatar
	}
	return HeadTags{
		Title:       fmt.Sprintf("%s - %s", article.DisplayTitle(), site.Name),
		SiteName:    site.Name,
		OgTitle:     article.RawTitle(),
		OgType:      "article",
		Image:       image,
		Url:         url,
		Description: utils.TruncateRunes(article.Content, DescriptionLength),
		Keywords:    strings.Join(article.HashtagNames(), ", "),
		Author:      article.User.Username,
	}
}
