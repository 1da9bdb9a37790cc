package diagram

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/oops"
	_ "modernc.org/sqlite"
)

// CachedRenderer remembers rendered SVGs in a SQLite database so each
// diagram is only rendered once per theme.
type CachedRenderer struct {
	Inner Renderer

	db    *sql.DB
	mu    sync.Mutex
	theme Theme
}

var _ Renderer = &CachedRenderer{}

func OpenCache(path string, inner Renderer) (*CachedRenderer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.New(err, "failed to open diagram cache")
	}
	// Keeps in-memory databases alive across calls.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS diagrams (
			key TEXT PRIMARY KEY,
			theme TEXT NOT NULL,
			svg TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, oops.New(err, "failed to create diagram cache schema")
	}

	return &CachedRenderer{Inner: inner, db: db, theme: ThemeLight}, nil
}

func (c *CachedRenderer) Close() error {
	return c.db.Close()
}

func (c *CachedRenderer) SetTheme(theme Theme) {
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
	c.Inner.SetTheme(theme)
}

func CacheKey(theme Theme, source string) string {
	sum := sha256.Sum256([]byte(string(theme) + "\x00" + source))
	return hex.EncodeToString(sum[:])
}

func (c *CachedRenderer) Render(ctx context.Context, source string) (string, error) {
	c.mu.Lock()
	theme := c.theme
	c.mu.Unlock()
	key := CacheKey(theme, source)

	var svg string
	err := c.db.QueryRowContext(ctx, `SELECT svg FROM diagrams WHERE key = ?`, key).Scan(&svg)
	if err == nil {
		return svg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("diagram cache lookup failed")
	}

	svg, err = c.Inner.Render(ctx, source)
	if err != nil {
		return "", err
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO diagrams (key, theme, svg, created_at) VALUES (?, ?, ?, ?)`,
		key, string(theme), svg, time.Now().UTC(),
	)
	if err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("failed to store rendered diagram")
	}
	return svg, nil
}

func (c *CachedRenderer) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diagrams`).Scan(&n)
	return n, err
}
