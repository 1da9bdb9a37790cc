package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"git.blogfront.dev/blogfront/src/models"
)

// Session is a Client bound to one viewer's credential.
type Session struct {
	client *Client
	token  string
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.token != ""
}

func (s *Session) get(ctx context.Context, path string, dest any, opening byte) error {
	res, err := s.client.do(ctx, http.MethodGet, path, s.token, nil)
	if err != nil {
		return err
	}
	return decode(res.Body, dest, opening)
}

func (s *Session) send(ctx context.Context, method string, path string, payload any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			panic(err)
		}
	}
	_, err := s.client.do(ctx, method, path, s.token, body)
	return err
}

func (s *Session) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := s.get(ctx, fmt.Sprintf("/feed/%s", escape(id)), &article, '{'); err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *Session) DeleteArticle(ctx context.Context, id int) error {
	return s.send(ctx, http.MethodDelete, fmt.Sprintf("/feed/%d", id), nil)
}

type setTopRequest struct {
	Top int `json:"top"`
}

// SetArticleTop sets the pin flag to an absolute value (0 or 1).
func (s *Session) SetArticleTop(ctx context.Context, id int, top int) error {
	return s.send(ctx, http.MethodPost, fmt.Sprintf("/feed/top/%d", id), setTopRequest{Top: top})
}

func (s *Session) ListComments(ctx context.Context, articleID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.get(ctx, fmt.Sprintf("/feed/comment/%s", escape(articleID)), &comments, '['); err != nil {
		return nil, err
	}
	return comments, nil
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (s *Session) CreateComment(ctx context.Context, articleID string, content string) error {
	return s.send(ctx, http.MethodPost, fmt.Sprintf("/feed/comment/%s", escape(articleID)), createCommentRequest{Content: content})
}

func (s *Session) DeleteComment(ctx context.Context, commentID int) error {
	return s.send(ctx, http.MethodDelete, fmt.Sprintf("/comment/%d", commentID), nil)
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func (s *Session) ListFeeds(ctx context.Context, listType models.ListType, page, limit int) (*models.FeedList, error) {
	q := pageQuery(page, limit)
	q.Set("type", string(listType))

	var list models.FeedList
	if err := s.get(ctx, "/feed?"+q.Encode(), &list, '{'); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *Session) ListHashtags(ctx context.Context) ([]models.HashtagSummary, error) {
	var tags []models.HashtagSummary
	if err := s.get(ctx, "/tag", &tags, '['); err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Session) GetHashtag(ctx context.Context, name string) (*models.HashtagDetail, error) {
	var tag models.HashtagDetail
	if err := s.get(ctx, fmt.Sprintf("/tag/%s", escape(name)), &tag, '{'); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Session) Search(ctx context.Context, keyword string, page, limit int) (*models.FeedList, error) {
	var list models.FeedList
	path := fmt.Sprintf("/search/%s?%s", escape(keyword), pageQuery(page, limit).Encode())
	if err := s.get(ctx, path, &list, '{'); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetProfile returns the viewer the credential belongs to. Anonymous
// sessions get a nil viewer without a request.
func (s *Session) GetProfile(ctx context.Context) (*models.Viewer, error) {
	if !s.Authenticated() {
		return nil, nil
	}
	var viewer models.Viewer
	if err := s.get(ctx, "/user/profile", &viewer, '{'); err != nil {
		return nil, err
	}
	return &viewer, nil
}

func (s *Session) GetClientConfig(ctx context.Context) (models.ClientConfig, error) {
	var cfg models.ClientConfig
	if err := s.get(ctx, "/config/client", &cfg, '{'); err != nil {
		return nil, err
	}
	return cfg, nil
}
