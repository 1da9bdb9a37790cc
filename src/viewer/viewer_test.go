package viewer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/models"
	"github.com/stretchr/testify/assert"
)

type fetcherFunc func(ctx context.Context) (*models.Viewer, error)

func (f fetcherFunc) GetProfile(ctx context.Context) (*models.Viewer, error) {
	return f(ctx)
}

func TestRefresh(t *testing.T) {
	admin := &models.Viewer{ID: 1, Username: "admin", Permission: true}
	h := NewHolder(nil)

	var notified []*models.Viewer
	h.Subscribe(func(v *models.Viewer) { notified = append(notified, v) })

	err := h.Refresh(context.Background(), fetcherFunc(func(ctx context.Context) (*models.Viewer, error) {
		return admin, nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, admin, h.Get())

	t.Run("rejected credential logs out", func(t *testing.T) {
		err := h.Refresh(context.Background(), fetcherFunc(func(ctx context.Context) (*models.Viewer, error) {
			return nil, &backend.ErrorToken{Status: http.StatusUnauthorized, Token: "Unauthorized"}
		}))
		assert.NoError(t, err)
		assert.Nil(t, h.Get())
	})

	t.Run("outage keeps the viewer", func(t *testing.T) {
		h.Set(admin)
		err := h.Refresh(context.Background(), fetcherFunc(func(ctx context.Context) (*models.Viewer, error) {
			return nil, errors.New("connection refused")
		}))
		assert.Error(t, err)
		assert.Equal(t, admin, h.Get())
	})

	assert.Equal(t, []*models.Viewer{admin, nil, admin}, notified)
}
