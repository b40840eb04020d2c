package database

import "errors"

var (
	// ErrSlugExists is returned when an attempt is made to create or update
	// a link with a slug that is already in use.
	ErrSlugExists = errors.New("slug exists")
	// ErrLinkNotFound is returned when a link is looked up by an id or slug
	// that doesn't exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrUserNotFound is returned when a user is looked up by an id or email
	// that doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when an attempt is made to create a user
	// with an email that is already registered.
	ErrEmailExists = errors.New("email exists")
)
