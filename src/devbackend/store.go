package devbackend

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.blogfront.dev/blogfront/src/models"
	lorem "github.com/HandmadeNetwork/golorem"
)

// Post is an article as the fake backend keeps it. Alias is an optional
// second identifier the article can be fetched by, like "about".
type Post struct {
	models.Article
	Alias string
}

type account struct {
	viewer models.Viewer
	token  string
}

// Store holds everything the fake backend serves. It is safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	posts    []*Post
	comments map[int][]models.Comment
	accounts map[string]*account
	tags     map[string]models.Hashtag
	config   models.ClientConfig

	nextPostID    int
	nextCommentID int
	nextTagID     int
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		comments:      make(map[int][]models.Comment),
		accounts:      make(map[string]*account),
		tags:          make(map[string]models.Hashtag),
		config:        models.ClientConfig{},
		nextPostID:    1,
		nextCommentID: 1,
		nextTagID:     1,
		now:           time.Now,
	}
}

// AddAccount registers a credential. The viewer's ID is kept as given.
func (s *Store) AddAccount(token string, v models.Viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[token] = &account{viewer: v, token: token}
}

func (s *Store) viewerFor(token string) *models.Viewer {
	if token == "" {
		return nil
	}
	acct, ok := s.accounts[token]
	if !ok {
		return nil
	}
	v := acct.viewer
	return &v
}

func (s *Store) SetClientConfig(cfg models.ClientConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

func (s *Store) ClientConfig() models.ClientConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(models.ClientConfig, len(s.config))
	for k, v := range s.config {
		res[k] = v
	}
	return res
}

// AddPost stores p with a fresh ID and returns the stored copy. Zero
// timestamps are set to now, and hashtags are resolved by name.
func (s *Store) AddPost(p Post) Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextPostID
	s.nextPostID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = models.NewTime(s.now())
	}
	if p.UpdatedAt.Before(p.CreatedAt.Time) {
		p.UpdatedAt = p.CreatedAt
	}
	tags := make([]models.Hashtag, 0, len(p.Hashtags))
	for _, h := range models.DedupeHashtags(p.Hashtags) {
		tags = append(tags, s.tagLocked(h.Name))
	}
	p.Hashtags = tags

	stored := p
	s.posts = append(s.posts, &stored)
	return stored
}

func (s *Store) tagLocked(name string) models.Hashtag {
	if tag, ok := s.tags[name]; ok {
		return tag
	}
	tag := models.Hashtag{ID: s.nextTagID, Name: name}
	s.nextTagID++
	s.tags[name] = tag
	return tag
}

// AddComment appends a comment by the viewer to the post with articleID.
func (s *Store) AddComment(articleID int, author models.Viewer, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postLocked(strconv.Itoa(articleID)) == nil {
		return models.Comment{}, errNotFound
	}
	return s.addCommentLocked(articleID, author, content), nil
}

func (s *Store) addCommentLocked(articleID int, author models.Viewer, content string) models.Comment {
	now := models.NewTime(s.now())
	var permission *int
	if author.Permission {
		one := 1
		permission = &one
	}
	c := models.Comment{
		ID:        s.nextCommentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		User: models.CommentAuthor{
			ID:         author.ID,
			Username:   author.Username,
			Avatar:     author.Avatar,
			Permission: permission,
		},
	}
	s.nextCommentID++
	s.comments[articleID] = append(s.comments[articleID], c)
	return c
}

// postLocked finds a post by numeric ID or alias.
func (s *Store) postLocked(id string) *Post {
	n, numErr := strconv.Atoi(id)
	for _, p := range s.posts {
		if (numErr == nil && p.ID == n) || (p.Alias != "" && p.Alias == id) {
			return p
		}
	}
	return nil
}

func (s *Store) Post(id string) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postLocked(id)
	if p == nil {
		return Post{}, false
	}
	return *p, true
}

func (s *Store) deletePost(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			delete(s.comments, id)
			return true
		}
	}
	return false
}

func (s *Store) setTop(id int, top int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.postLocked(strconv.Itoa(id))
	if p == nil {
		return false
	}
	p.Top = top
	return true
}

func (s *Store) Comments(articleID int) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Comment{}, s.comments[articleID]...)
}

func (s *Store) comment(id int) (int, models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for articleID, list := range s.comments {
		for _, c := range list {
			if c.ID == id {
				return articleID, c, true
			}
		}
	}
	return 0, models.Comment{}, false
}

func (s *Store) deleteComment(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for articleID, list := range s.comments {
		for i, c := range list {
			if c.ID == id {
				s.comments[articleID] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

func listTypeMatches(p *Post, lt models.ListType) bool {
	switch lt {
	case models.ListDraft:
		return p.IsDraft()
	case models.ListUnlisted:
		return !p.IsDraft() && !p.IsListed()
	}
	return !p.IsDraft() && p.IsListed()
}

// feeds returns the posts matching keep, pinned first, newest first.
func (s *Store) feeds(keep func(p *Post) bool) []models.FeedCard {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*Post
	for _, p := range s.posts {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Top != matched[j].Top {
			return matched[i].Top > matched[j].Top
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt.Time)
	})

	cards := make([]models.FeedCard, 0, len(matched))
	for _, p := range matched {
		cards = append(cards, cardOf(p))
	}
	return cards
}

func cardOf(p *Post) models.FeedCard {
	avatar := ""
	if p.User.Avatar != nil {
		avatar = *p.User.Avatar
	}
	return models.FeedCard{
		ID:        p.ID,
		Title:     p.RawTitle(),
		Summary:   p.Summary,
		Avatar:    avatar,
		Draft:     p.Draft,
		Listed:    p.Listed,
		Top:       p.Top,
		Hashtags:  append([]models.Hashtag{}, p.Hashtags...),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func page(cards []models.FeedCard, pageNum, limit int) models.FeedList {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (pageNum - 1) * limit
	if start > len(cards) {
		start = len(cards)
	}
	end := start + limit
	if end > len(cards) {
		end = len(cards)
	}
	return models.FeedList{
		Size:    len(cards),
		Data:    cards[start:end],
		HasNext: end < len(cards),
	}
}

func (s *Store) hashtags() []models.HashtagSummary {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, p := range s.posts {
		if !listTypeMatches(p, models.ListNormal) {
			continue
		}
		for _, h := range p.Hashtags {
			counts[h.Name]++
		}
	}
	res := make([]models.HashtagSummary, 0, len(s.tags))
	for name, tag := range s.tags {
		res = append(res, models.HashtagSummary{ID: tag.ID, Name: name, Feeds: counts[name]})
	}
	s.mu.Unlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *Store) hasTag(name string) (models.Hashtag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[name]
	return tag, ok
}

// Seed fills the store with n lorem ipsum articles, an about page, a
// couple of comments each and two accounts: an admin holding adminToken
// and a reader holding "reader-" + adminToken.
func (s *Store) Seed(n int, adminToken string) {
	admin := models.Viewer{ID: 1, Username: "admin", Permission: true}
	reader := models.Viewer{ID: 2, Username: "reader"}
	s.AddAccount(adminToken, admin)
	s.AddAccount("reader-"+adminToken, reader)

	s.SetClientConfig(models.ClientConfig{
		models.ClientConfigCommentEnabled: true,
		models.ClientConfigCounterEnabled: true,
	})

	tagPool := []string{"go", "web", "notes", "diagrams", "life"}
	start := s.now().Add(-time.Duration(n) * 24 * time.Hour)

	for i := 0; i < n; i++ {
		created := start.Add(time.Duration(i) * 24 * time.Hour)
		updated := created
		if randomBool() {
			updated = created.Add(time.Duration(rand.Intn(48)+1) * time.Hour)
		}
		title := strings.TrimSuffix(lorem.Sentence(3, 8), ".")

		var tags []models.Hashtag
		for _, name := range tagPool {
			if rand.Intn(3) == 0 {
				tags = append(tags, models.Hashtag{Name: name})
			}
		}

		p := s.AddPost(Post{Article: models.Article{
			Title:     &title,
			Content:   seedContent(i),
			Summary:   lorem.Sentence(8, 16),
			UID:       admin.ID,
			User:      models.ArticleAuthor{ID: admin.ID, Username: admin.Username},
			CreatedAt: models.NewTime(created),
			UpdatedAt: models.NewTime(updated),
			PV:        rand.Intn(500),
			UV:        rand.Intn(200),
			Top:       boolInt(i == n-1),
			Draft:     boolInt(i%7 == 3),
			Listed:    boolInt(i%5 != 4),
			Hashtags:  tags,
		}})

		for c := rand.Intn(3); c > 0; c-- {
			s.AddComment(p.ID, reader, lorem.Sentence(4, 20))
		}
	}

	aboutTitle := "About"
	s.AddPost(Post{
		Alias: "about",
		Article: models.Article{
			Title:   &aboutTitle,
			Content: "# About\n\n" + lorem.Paragraph(2, 4),
			UID:     admin.ID,
			User:    models.ArticleAuthor{ID: admin.ID, Username: admin.Username},
			Listed:  0,
		},
	})
}

func seedContent(i int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", lorem.Paragraph(1, 3))
	if i%3 == 0 {
		fmt.Fprintf(&b, "![cover](https://picsum.photos/seed/%d/800/400)\n\n", i)
	}
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", strings.TrimSuffix(lorem.Sentence(2, 5), "."), lorem.Paragraph(2, 4))
	if i%4 == 1 {
		b.WriteString("```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```\n\n")
	}
	if i%4 == 2 {
		b.WriteString("```mermaid\ngraph TD\n  A[Write] --> B[Publish]\n  B --> C[Read]\n```\n\n")
	}
	b.WriteString(lorem.Paragraph(1, 2))
	return b.String()
}

func randomBool() bool {
	return rand.Intn(2) == 1
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
