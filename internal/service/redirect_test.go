package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

type MockSlugResolver struct {
	mock.Mock
}

func (r *MockSlugResolver) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	args := r.Called(ctx, slug)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

type capturingRecorder struct {
	mu     sync.Mutex
	events []models.ClickEvent
}

func (r *capturingRecorder) Record(event models.ClickEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func setupRedirectService(t *testing.T) (*RedirectService, *MockSlugResolver, *capturingRecorder) {
	t.Helper()

	resolverMock := new(MockSlugResolver)
	recorder := &capturingRecorder{}
	svc := NewRedirectService(resolverMock, recorder)

	t.Cleanup(func() {
		resolverMock.AssertExpectations(t)
	})

	return svc, resolverMock, recorder
}

func TestRedirectService_HandleRedirect(t *testing.T) {
	activeLink := &models.Link{
		ID:          "link1",
		Slug:        "my-link",
		Destination: "https://example.com/x",
		IsActive:    true,
	}

	t.Run("unknown slug, no event recorded", func(t *testing.T) {
		svc, resolverMock, recorder := setupRedirectService(t)

		resolverMock.
			On("GetBySlug", mock.Anything, "nope").
			Once().
			Return(nil, database.ErrLinkNotFound)

		dest, err := svc.HandleRedirect(context.Background(), "nope", http.Header{})

		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Empty(t, dest)
		assert.Empty(t, recorder.events)
	})

	t.Run("inactive link treated as not found, no event recorded", func(t *testing.T) {
		svc, resolverMock, recorder := setupRedirectService(t)

		resolverMock.
			On("GetBySlug", mock.Anything, "my-link").
			Once().
			Return(&models.Link{ID: "link1", Slug: "my-link", Destination: "https://example.com/x"}, nil)

		dest, err := svc.HandleRedirect(context.Background(), "my-link", http.Header{})

		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Empty(t, dest)
		assert.Empty(t, recorder.events)
	})

	t.Run("raw slug is normalized before lookup", func(t *testing.T) {
		svc, resolverMock, _ := setupRedirectService(t)

		resolverMock.
			On("GetBySlug", mock.Anything, "my-link").
			Once().
			Return(activeLink, nil)

		dest, err := svc.HandleRedirect(context.Background(), "  My-Link ", http.Header{})

		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/x", dest)
	})

	t.Run("hit records exactly one event with derived fields", func(t *testing.T) {
		svc, resolverMock, recorder := setupRedirectService(t)

		resolverMock.
			On("GetBySlug", mock.Anything, "my-link").
			Once().
			Return(activeLink, nil)

		h := http.Header{}
		h.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		h.Set("X-Vercel-Ip-Country", "MY")
		h.Set("Referer", "https://t.co/abc?ref=1")

		dest, err := svc.HandleRedirect(context.Background(), "my-link", h)

		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/x", dest)
		assert.Len(t, recorder.events, 1)

		event := recorder.events[0]
		assert.Equal(t, "link1", event.LinkID)
		assert.Equal(t, "203.0.113.7", event.IP)
		assert.Equal(t, "MY", event.Country)
		assert.Equal(t, "https://t.co/abc?ref=1", event.Referer)
	})

	t.Run("destination returned verbatim", func(t *testing.T) {
		svc, resolverMock, _ := setupRedirectService(t)

		link := &models.Link{
			ID:          "link2",
			Slug:        "q",
			Destination: "https://example.com/path?q=1&x=%20y",
			IsActive:    true,
		}
		resolverMock.
			On("GetBySlug", mock.Anything, "qqq").
			Once().
			Return(link, nil)

		dest, err := svc.HandleRedirect(context.Background(), "qqq", http.Header{})

		assert.NoError(t, err)
		assert.Equal(t, link.Destination, dest)
	})
}
