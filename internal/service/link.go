package service

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/internal/slug"
)

// LinkRepository defines the slug registry operations the business layer
// needs. Slugs passed in are already normalized.
type LinkRepository interface {
	// Create inserts a new link. Returns database.ErrSlugExists when the
	// slug is already taken.
	Create(ctx context.Context, id, slug, destination, title, ownerID string) (*models.Link, error)

	// GetByID retrieves a link by id, annotated with its click count.
	GetByID(ctx context.Context, id string) (*models.Link, error)

	// GetBySlug resolves a normalized slug with no side effects.
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)

	// List returns links newest first; an empty ownerID returns all links.
	List(ctx context.Context, ownerID string) ([]models.Link, error)

	// Update applies a partial update, re-checking slug uniqueness at the
	// storage layer.
	Update(ctx context.Context, id string, upd models.LinkUpdate) (*models.Link, error)

	// Delete removes a link. Associated click events cascade at the schema
	// level.
	Delete(ctx context.Context, id string) error

	// Count counts links; an empty ownerID counts all links.
	Count(ctx context.Context, ownerID string) (int64, error)
}

// ClickEventReader is the read side of the click log consumed by link detail
// views.
type ClickEventReader interface {
	ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.ClickEvent, error)
}

// LinkService manages link definitions. Every operation on an existing link
// applies the ownership policy: the actor must be an admin or the link's
// owner.
type LinkService struct {
	repo   LinkRepository
	events ClickEventReader
}

func NewLinkService(repo LinkRepository, events ClickEventReader) *LinkService {
	return &LinkService{
		repo:   repo,
		events: events,
	}
}

// LinkDetails is a link together with its most recent click events.
type LinkDetails struct {
	Link         models.Link
	RecentEvents []models.ClickEvent
}

const recentEventsLimit = 25

func validateSlug(raw string) (string, error) {
	normalized := slug.Normalize(raw)

	if !slug.IsValid(normalized) {
		return "", validationErrorf("Slug must be 3-64 characters and only contain letters, numbers, or hyphens.")
	}
	if slug.IsReserved(normalized) {
		return "", validationErrorf("Slug is reserved. Please choose another.")
	}

	return normalized, nil
}

// Create validates the slug format, reservation and destination scheme, then
// inserts. Uniqueness is enforced by the storage constraint so two concurrent
// creates with the same slug race safely: exactly one succeeds, the other
// observes database.ErrSlugExists.
func (s *LinkService) Create(ctx context.Context, actor models.Principal, rawSlug, destination, title string) (*models.Link, error) {
	const op = "service.LinkService.Create"

	if rawSlug == "" || destination == "" {
		return nil, validationErrorf("Slug and destination URL are required.")
	}

	normalized, err := validateSlug(rawSlug)
	if err != nil {
		return nil, err
	}

	if !slug.IsValidDestination(destination) {
		return nil, validationErrorf("Destination must be a valid http(s) URL.")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate link id: %w", op, err)
	}

	link, err := s.repo.Create(ctx, id, normalized, destination, title, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
	}

	return link, nil
}

// List returns the links in the caller's scope. Admins see all links, or one
// user's links when userIDFilter is set; non-admins always see only their own
// regardless of the filter.
func (s *LinkService) List(ctx context.Context, actor models.Principal, userIDFilter string) ([]models.Link, error) {
	const op = "service.LinkService.List"

	ownerID := actor.UserID
	if actor.IsAdmin() {
		ownerID = userIDFilter
	}

	links, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// Get fetches one link with its recent click events, applying the ownership
// policy.
func (s *LinkService) Get(ctx context.Context, actor models.Principal, id string) (*LinkDetails, error) {
	const op = "service.LinkService.Get"

	link, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events, err := s.events.ListRecentByLink(ctx, link.ID, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list recent click events: %w", op, err)
	}

	return &LinkDetails{Link: *link, RecentEvents: events}, nil
}

// Update applies a partial update after re-validating every changed field.
// Slug uniqueness excluding self is re-checked by the storage constraint.
func (s *LinkService) Update(ctx context.Context, actor models.Principal, id string, upd models.LinkUpdate) (*models.Link, error) {
	const op = "service.LinkService.Update"

	if _, err := s.authorize(ctx, actor, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Slug != nil {
		normalized, err := validateSlug(*upd.Slug)
		if err != nil {
			return nil, err
		}
		upd.Slug = &normalized
	}

	if upd.Destination != nil && !slug.IsValidDestination(*upd.Destination) {
		return nil, validationErrorf("Destination must be a valid http(s) URL.")
	}

	link, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	return link, nil
}

// Delete hard-deletes a link, applying the ownership policy.
func (s *LinkService) Delete(ctx context.Context, actor models.Principal, id string) error {
	const op = "service.LinkService.Delete"

	if _, err := s.authorize(ctx, actor, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// authorize fetches the link and enforces the access policy: the actor may
// operate on it iff the actor is an admin or owns it.
func (s *LinkService) authorize(ctx context.Context, actor models.Principal, id string) (*models.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && link.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}

	return link, nil
}
