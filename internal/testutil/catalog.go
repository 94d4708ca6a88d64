package testutil

import (
	"testing"

	"github.com/udisondev/stealthai/internal/data"
)

// DefaultCatalog loads the embedded catalog or fails the test.
func DefaultCatalog(tb testing.TB) *data.Catalog {
	tb.Helper()
	c, err := data.LoadDefaultCatalog()
	if err != nil {
		tb.Fatalf("loading default catalog: %v", err)
	}
	return c
}

// Catalog parses a YAML catalog or fails the test.
func Catalog(tb testing.TB, raw string) *data.Catalog {
	tb.Helper()
	c, err := data.ParseCatalog([]byte(raw))
	if err != nil {
		tb.Fatalf("parsing catalog: %v", err)
	}
	return c
}
