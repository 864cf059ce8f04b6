package canonical

import (
	"net/url"
	"strings"
)

const wwwPrefix = "www."

// trackingParams are query parameters that carry tracking identity rather
// than content identity. They are stripped during normalization so that the
// same article shared through different campaigns dedups to one canonical URL.
// The list is adjustable data, not logic.
var trackingParams = paramSet(
	// UTM family
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"utm_id", "utm_name", "utm_brand",

	// Ad and social click identifiers
	"fbclid", "gclid", "gclsrc", "dclid", "msclkid", "twclid", "igshid",
	"igsh", "ttclid", "li_fat_id", "yclid", "wbraid", "gbraid",

	// Email platform subscriber/campaign identifiers
	"mc_cid", "mc_eid", "mkt_tok", "vero_id", "vero_conv",
	"ck_subscriber_id", "_bhlid", "ml_subscriber", "ml_subscriber_hash",
	"bsft_clkid", "bsft_uid", "oly_anon_id", "oly_enc_id", "rb_clickid",
	"sc_cid",

	// Generic analytics fields
	"ref", "ref_src", "ref_url", "source", "cmpid", "cmp", "camp", "cid",
	"mbid", "ncid", "ocid", "sref", "smid", "smtyp", "share_id", "si",
	"spm", "_hsenc", "_hsmi", "hsctatracking", "s_cid", "ito", "xtor",
	"guccounter", "guce_referrer", "guce_referrer_sig",
)

func paramSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Normalize maps a URL to its canonical textual form. It is a deterministic
// pure function and is idempotent: Normalize(Normalize(u)) == Normalize(u).
// Unparseable input is returned unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return raw
	}

	u.Scheme = "https"
	u.Fragment = ""
	u.RawFragment = ""

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, wwwPrefix)

	// Default ports are dropped; anything else is kept.
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	u.Path = normalizePath(u.Path)
	u.RawPath = ""
	u.RawQuery = normalizeQuery(u.RawQuery)

	return u.String()
}

// normalizePath collapses repeated slashes and strips one trailing slash,
// leaving the root path untouched.
func normalizePath(path string) string {
	if path == "" {
		return ""
	}

	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	return path
}

// normalizeQuery drops tracking parameters and sorts the remainder by key.
func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	for key := range values {
		if _, tracked := trackingParams[strings.ToLower(key)]; tracked {
			delete(values, key)
		}
	}

	// Encode sorts keys.
	return values.Encode()
}

// ExtractDomain returns the lowercased hostname with a leading www. stripped,
// or the empty string when the URL cannot be parsed.
func ExtractDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())

	return strings.TrimPrefix(host, wwwPrefix)
}
