package models

import "time"

// Link represents a short alias and its destination. The slug is stored
// normalized and is globally unique; IsActive gates redirecting without
// destroying history.
type Link struct {
	// ID is the opaque unique identifier for the link record.
	ID string
	// Slug is the short, unique, URL-safe path segment mapped to the destination.
	Slug string
	// Destination is the absolute http(s) URL the slug redirects to.
	Destination string
	// Title is an optional display label.
	Title string
	// IsActive controls whether the slug still redirects to the destination.
	IsActive bool
	// OwnerID references the user that created the link. Ownership never transfers.
	OwnerID string
	// ClickCount is the number of click events associated with the link.
	ClickCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LinkUpdate carries a partial update. A nil field means "leave unchanged";
// keeping one optional field per attribute keeps validation exhaustive.
type LinkUpdate struct {
	Slug        *string
	Destination *string
	Title       *string
	IsActive    *bool
}
