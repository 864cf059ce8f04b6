package titles

import (
	"regexp"
	"strings"
)

// blockedTitlePattern pairs a recognizer with a stable reason string. The
// table is ordered; the first match wins.
type blockedTitlePattern struct {
	pattern *regexp.Regexp
	reason  string
}

// blockedTitles recognizes titles scraped off interstitial pages rather than
// articles: bot challenges, browser notices, error pages, paywalls, and
// generic placeholders.
var blockedTitles = []blockedTitlePattern{
	{regexp.MustCompile(`(?i)\b(captcha|are you a robot|robot check|verify(ing)? you are (a )?human|unusual traffic|attention required|just a moment|checking your browser|security check|cloudflare)\b`), "bot_challenge"},
	{regexp.MustCompile(`(?i)\b(update your browser|browser (is )?(out of date|not supported|unsupported)|upgrade your browser|enable javascript|javascript is (required|disabled|not available))\b`), "browser_notice"},
	{regexp.MustCompile(`(?i)\b(access denied|access to this page|forbidden|age verification|how old are you|must be (18|21))\b`), "access_denied"},
	{regexp.MustCompile(`(?i)\b(404|page not found|content not found|article not found|page (no longer|doesn't) exist|link (has )?expired|page unavailable|page removed)\b`), "not_found"},
	{regexp.MustCompile(`(?i)\b(subscribe to (read|continue)|subscription required|sign in to (read|continue)|log ?in to (read|continue)|register to (read|continue)|create a free account|paywall|members only)\b`), "paywall"},
	{regexp.MustCompile(`(?i)^(loading|please wait|redirecting|one moment)(\.{3}|…)?$`), "placeholder"},
	{regexp.MustCompile(`(?i)^home\b`), "placeholder"},
	{regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)+$`), "domain_only"},
}

// IsBlockedTitle tests text against the blocked-title table and returns the
// first matching reason. Legitimate-looking titles return ("", false).
func IsBlockedTitle(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "empty", true
	}

	// One or two characters carry no information.
	if len([]rune(text)) <= 2 {
		return "too_short", true
	}

	lower := strings.ToLower(text)

	for _, entry := range blockedTitles {
		if entry.pattern.MatchString(lower) {
			return entry.reason, true
		}
	}

	return "", false
}
