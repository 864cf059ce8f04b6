package canonical

import (
	"net/url"
	"strings"
)

// PatternKind distinguishes wrappers whose destination is readable from URL
// structure from wrappers that require an HTTP hop to follow.
type PatternKind string

const (
	// PatternExtract wrappers embed the destination in the URL itself.
	PatternExtract PatternKind = "extract"

	// PatternRedirect wrappers require following an HTTP redirect.
	PatternRedirect PatternKind = "redirect"
)

// WrapperPattern describes one recognized wrapper-URL shape.
//
// The table below is ordered and first match wins. For a provider that
// supports both kinds, the extract pattern must precede any broader redirect
// pattern on the same host, or the zero-network extraction is silently
// skipped in favor of an HTTP hop; ordering is pinned by tests.
type WrapperPattern struct {
	Name    string
	Kind    PatternKind
	match   func(u *url.URL) bool
	extract func(u *url.URL) string
}

// queryParamExtractor reads and URL-decodes a destination from the named
// query parameter. url.Query already decodes, so the value is used as-is
// after a scheme sanity check.
func queryParamExtractor(params ...string) func(u *url.URL) string {
	return func(u *url.URL) string {
		q := u.Query()
		for _, p := range params {
			dest := strings.TrimSpace(q.Get(p))
			if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
				return dest
			}
		}

		return ""
	}
}

func hostIs(hosts ...string) func(u *url.URL) bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[h] = true
	}

	return func(u *url.URL) bool {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), wwwPrefix)
		return set[host]
	}
}

func hostAndPath(host, pathPrefix string) func(u *url.URL) bool {
	return func(u *url.URL) bool {
		h := strings.TrimPrefix(strings.ToLower(u.Hostname()), wwwPrefix)
		return h == host && strings.HasPrefix(u.Path, pathPrefix)
	}
}

// wrapperPatterns is the ordered wrapper table. Extract patterns for a
// provider come before redirect patterns matching the same host.
var wrapperPatterns = []WrapperPattern{
	{
		Name:    "google-redirect",
		Kind:    PatternExtract,
		match:   hostAndPath("google.com", "/url"),
		extract: queryParamExtractor("url", "q"),
	},
	{
		Name:    "facebook-linkshim",
		Kind:    PatternExtract,
		match:   hostAndPath("l.facebook.com", "/l.php"),
		extract: queryParamExtractor("u"),
	},
	{
		Name:    "reddit-outbound",
		Kind:    PatternExtract,
		match:   hostIs("out.reddit.com"),
		extract: queryParamExtractor("url"),
	},
	{
		Name:    "youtube-redirect",
		Kind:    PatternExtract,
		match:   hostAndPath("youtube.com", "/redirect"),
		extract: queryParamExtractor("q"),
	},
	{
		Name:    "instagram-outbound",
		Kind:    PatternExtract,
		match:   hostAndPath("l.instagram.com", "/"),
		extract: queryParamExtractor("u"),
	},
	{
		Name:  "substack-clicktracker",
		Kind:  PatternRedirect,
		match: hostIs("link.sbstck.com", "substack.com", "email.mg1.substack.com", "email.mg2.substack.com"),
	},
	{
		Name:  "mailchimp-clicktracker",
		Kind:  PatternRedirect,
		match: func(u *url.URL) bool {
			host := strings.ToLower(u.Hostname())
			return strings.HasSuffix(host, ".list-manage.com") && strings.Contains(u.Path, "/track/click")
		},
	},
	{
		Name:  "sendgrid-clicktracker",
		Kind:  PatternRedirect,
		match: func(u *url.URL) bool {
			host := strings.ToLower(u.Hostname())
			return strings.HasSuffix(host, ".sendgrid.net") || (strings.HasPrefix(host, "links.") && strings.Contains(u.Path, "/ls/click"))
		},
	},
	{
		Name:  "beehiiv-clicktracker",
		Kind:  PatternRedirect,
		match: hostIs("link.mail.beehiiv.com", "flight.beehiiv.net"),
	},
	{
		Name:  "convertkit-clicktracker",
		Kind:  PatternRedirect,
		match: func(u *url.URL) bool {
			return strings.Contains(strings.ToLower(u.Hostname()), "convertkit-mail")
		},
	},
	{
		Name:  "google-news",
		Kind:  PatternRedirect,
		match: hostAndPath("news.google.com", "/articles"),
	},
	{
		Name:  "medium-clicktracker",
		Kind:  PatternRedirect,
		match: hostIs("link.medium.com"),
	},
	{
		Name:  "shortener",
		Kind:  PatternRedirect,
		match: hostIs(
			"bit.ly", "t.co", "tinyurl.com", "buff.ly", "ow.ly", "goo.gl",
			"trib.al", "dlvr.it", "ift.tt", "lnkd.in", "amzn.to", "rb.gy",
			"is.gd", "cutt.ly", "shorturl.at", "t.ly", "tiny.cc",
		),
	},
}

// Match scans the ordered wrapper table and returns the first pattern whose
// shape matches, or nil. Malformed input yields nil rather than an error.
func Match(raw string) *WrapperPattern {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil
	}

	for i := range wrapperPatterns {
		if wrapperPatterns[i].match(u) {
			return &wrapperPatterns[i]
		}
	}

	return nil
}

// TryExtractDestination returns the wrapped destination when raw matches an
// extract-kind pattern, or the empty string. No network I/O is performed.
func TryExtractDestination(raw string) string {
	pattern := Match(raw)
	if pattern == nil || pattern.Kind != PatternExtract || pattern.extract == nil {
		return ""
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	return pattern.extract(u)
}
