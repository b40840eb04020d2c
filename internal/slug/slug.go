// Package slug holds the pure slug and destination rules shared by the
// management endpoints and the redirect resolver. Normalization is applied
// consistently at write time and read time so case variants of the same slug
// always collide to one record.
package slug

import (
	"net/url"
	"regexp"
	"strings"
)

// reserved slugs collide with structural route names and can never exist in
// the registry.
var reserved = map[string]struct{}{
	"api":             {},
	"_next":           {},
	"about":           {},
	"pricing":         {},
	"contact":         {},
	"blog":            {},
	"blogs":           {},
	"error":           {},
	"signin":          {},
	"signup":          {},
	"auth":            {},
	"forgot-password": {},
	"reset-password":  {},
	"dashboard":       {},
	"admin":           {},
	"site":            {},
	"images":          {},
	"favicon.ico":     {},
	"sitemap.xml":     {},
	"robots.txt":      {},
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,64}$`)

// Normalize trims whitespace and lowercases the slug. It is idempotent.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValid reports whether the normalized slug is 3-64 characters of
// alphanumerics and hyphens.
func IsValid(s string) bool {
	return slugPattern.MatchString(Normalize(s))
}

// IsReserved reports whether the slug collides with a structural route name,
// for any case variant.
func IsReserved(s string) bool {
	_, ok := reserved[Normalize(s)]
	return ok
}

// IsValidDestination reports whether the destination is an absolute URL with
// an http or https scheme.
func IsValidDestination(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
