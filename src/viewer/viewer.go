// Package viewer tracks who is looking at the page.
package viewer

import (
	"context"
	"errors"
	"net/http"

	"git.blogfront.dev/blogfront/src/ambient"
	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/models"
)

type ProfileFetcher interface {
	GetProfile(ctx context.Context) (*models.Viewer, error)
}

// Holder is the current viewer. nil means logged out.
type Holder struct {
	*ambient.Value[*models.Viewer]
}

func NewHolder(v *models.Viewer) *Holder {
	return &Holder{Value: ambient.New(v)}
}

// Refresh asks the backend who the credential belongs to. A rejected
// credential logs the viewer out; other failures leave the viewer as it was.
func (h *Holder) Refresh(ctx context.Context, fetcher ProfileFetcher) error {
	v, err := Fetch(ctx, fetcher)
	if err != nil {
		return err
	}
	h.Set(v)
	return nil
}

// Fetch returns the viewer for fetcher's credential, or nil when the
// backend does not recognize it.
func Fetch(ctx context.Context, fetcher ProfileFetcher) (*models.Viewer, error) {
	v, err := fetcher.GetProfile(ctx)
	if err != nil {
		var tokErr *backend.ErrorToken
		if errors.As(err, &tokErr) && (tokErr.Status == http.StatusUnauthorized || tokErr.Status == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
