package titles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatURLAsTitle(t *testing.T) {
	tests := []struct {
		name string
		url  string
		dom  string
		want string
	}{
		{
			name: "slug to title case",
			url:  "https://example.com/posts/my-cool-post",
			dom:  "example.com",
			want: "My Cool Post",
		},
		{
			name: "acronyms preserved",
			url:  "https://example.com/news/nasa-announces-ai-mission",
			dom:  "example.com",
			want: "NASA Announces AI Mission",
		},
		{
			name: "file extension stripped",
			url:  "https://example.com/2024/05/12/fed-rate-decision.html",
			dom:  "example.com",
			want: "Fed Rate Decision",
		},
		{
			name: "underscores and plus signs",
			url:  "https://example.com/why_the_sec_sued+again",
			dom:  "example.com",
			want: "Why The SEC Sued Again",
		},
		{
			name: "percent encoding decoded",
			url:  "https://example.com/caf%C3%A9-culture-in-paris",
			dom:  "example.com",
			want: "Café Culture In Paris",
		},
		{
			name: "numeric-only path falls back to domain",
			url:  "https://example.com/2024/05/12",
			dom:  "example.com",
			want: "Example",
		},
		{
			name: "empty path falls back to domain",
			url:  "https://nytimes.com/",
			dom:  "nytimes.com",
			want: "The New York Times",
		},
		{
			name: "short segment gets domain appended",
			url:  "https://example.com/ai",
			dom:  "example.com",
			want: "AI - Example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatURLAsTitle(tt.url, tt.dom)

			require.Equal(t, tt.want, got)
			require.NotEmpty(t, got)
		})
	}
}

func TestFormatDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nytimes.com", "The New York Times"},
		{"www.theverge.com", "The Verge"},
		{"blog.acme.com", "Acme"},
		{"acme.co.uk", "Acme"},
		{"news.acme.co.uk", "Acme"},
		{"", "Unknown Source"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatDomain(tt.in))
	}
}
