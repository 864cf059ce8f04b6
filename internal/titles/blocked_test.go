package titles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBlockedTitle(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantReason string
	}{
		{"empty", "", "empty"},
		{"whitespace only", "   ", "empty"},
		{"single char", "x", "too_short"},
		{"two runes", "ok", "too_short"},
		{"captcha", "Robot Check", "bot_challenge"},
		{"cloudflare interstitial", "Just a moment...", "bot_challenge"},
		{"human verification", "Verifying you are human", "bot_challenge"},
		{"browser notice", "Please update your browser", "browser_notice"},
		{"javascript notice", "JavaScript is disabled in your browser", "browser_notice"},
		{"access denied", "Access Denied", "access_denied"},
		{"age gate", "Age Verification Required", "access_denied"},
		{"404", "404 - Page Not Found", "not_found"},
		{"expired link", "This link has expired", "not_found"},
		{"paywall", "Subscribe to continue reading", "paywall"},
		{"login wall", "Sign in to continue", "paywall"},
		{"loading placeholder", "Loading...", "placeholder"},
		{"home page title", "Home | Example News", "placeholder"},
		{"bare domain", "example.com", "domain_only"},
		{"bare subdomain", "news.example.co.uk", "domain_only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, blocked := IsBlockedTitle(tt.in)

			require.True(t, blocked)
			require.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestIsBlockedTitleAllowsRealTitles(t *testing.T) {
	titles := []string{
		"The Future of AI Regulation",
		"Fed Holds Rates Steady as Inflation Cools",
		"Homeowners Face Rising Insurance Costs",
		"EU Passes Landmark Privacy Law",
	}

	for _, title := range titles {
		reason, blocked := IsBlockedTitle(title)
		require.False(t, blocked, "%q wrongly blocked as %s", title, reason)
	}
}
