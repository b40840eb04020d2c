package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("trims and lowercases", func(t *testing.T) {
		assert.Equal(t, "my-link", Normalize("  My-Link "))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, s := range []string{"My-Link", "  ABC  ", "already-normal", "", " MiXeD-1 "} {
			assert.Equal(t, Normalize(s), Normalize(Normalize(s)))
		}
	})
}

func TestIsValid(t *testing.T) {
	valid := []string{"abc", "my-link", "ABC-123", "  promo-2024  ", "a1-", "---"}
	for _, s := range valid {
		assert.True(t, IsValid(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "ab", "has space", "under_score", "Ünicode", "a/b"}
	for _, s := range invalid {
		assert.False(t, IsValid(s), "expected %q to be invalid", s)
	}

	t.Run("length bounds", func(t *testing.T) {
		long := make([]byte, 64)
		for i := range long {
			long[i] = 'a'
		}
		assert.True(t, IsValid(string(long)))
		assert.False(t, IsValid(string(long)+"a"))
	})
}

func TestIsReserved(t *testing.T) {
	for _, s := range []string{"api", "API", "  Admin ", "Error", "dashboard", "favicon.ico"} {
		assert.True(t, IsReserved(s), "expected %q to be reserved", s)
	}

	for _, s := range []string{"my-link", "apis", "blogging"} {
		assert.False(t, IsReserved(s), "expected %q not to be reserved", s)
	}
}

func TestIsValidDestination(t *testing.T) {
	valid := []string{"https://example.com/x", "http://example.com", "https://t.co/abc?ref=1"}
	for _, s := range valid {
		assert.True(t, IsValidDestination(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "ftp://example.com", "javascript:alert(1)", "not a url", "/relative/path", "example.com"}
	for _, s := range invalid {
		assert.False(t, IsValidDestination(s), "expected %q to be invalid", s)
	}
}
