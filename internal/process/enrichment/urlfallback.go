package enrichment

import (
	"context"

	"github.com/newsfold/linkresolver/internal/titles"
)

// URLFallbackBackend formats the URL path into a readable title. It is
// the terminal tier of the chain and cannot fail, which is what makes
// the non-empty title guarantee hold.
type URLFallbackBackend struct{}

func NewURLFallbackBackend() *URLFallbackBackend { return &URLFallbackBackend{} }

func (URLFallbackBackend) Name() string { return SourceURLFormat }

func (URLFallbackBackend) Available() bool { return true }

func (URLFallbackBackend) Attempt(_ context.Context, pageURL, domain string) (*Metadata, error) {
	return &Metadata{Title: titles.FormatURLAsTitle(pageURL, domain)}, nil
}
