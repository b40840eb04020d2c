package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vadimbarashkov/linklytics/internal/capture"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/internal/slug"
)

// EventRecorder is the fire-and-forget sink for click events.
type EventRecorder interface {
	Record(event models.ClickEvent)
}

// SlugResolver is the read path of the slug registry.
type SlugResolver interface {
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)
}

// RedirectService resolves inbound slugs to destinations and triggers click
// capture. There is no slug cache: every redirect re-resolves, so an
// active/inactive toggle or destination edit takes effect on the very next
// request.
type RedirectService struct {
	resolver SlugResolver
	recorder EventRecorder
}

func NewRedirectService(resolver SlugResolver, recorder EventRecorder) *RedirectService {
	return &RedirectService{
		resolver: resolver,
		recorder: recorder,
	}
}

// HandleRedirect normalizes and resolves the slug, records a click event on a
// hit, and returns the destination to redirect to. For an unknown or inactive
// slug it returns database.ErrLinkNotFound and records nothing. The recording
// step never delays or fails the returned redirect.
func (s *RedirectService) HandleRedirect(ctx context.Context, rawSlug string, headers http.Header) (string, error) {
	const op = "service.RedirectService.HandleRedirect"

	link, err := s.resolver.GetBySlug(ctx, slug.Normalize(rawSlug))
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve slug: %w", op, err)
	}

	if !link.IsActive {
		return "", fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	event := capture.Classify(headers)
	event.LinkID = link.ID
	s.recorder.Record(event)

	// The destination was validated at create/update time and is returned
	// verbatim.
	return link.Destination, nil
}
