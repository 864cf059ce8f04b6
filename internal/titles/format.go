package titles

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minFormattedTitleLen is the point below which a formatted path segment is
// too terse to stand alone and gets the domain appended for context.
const minFormattedTitleLen = 8

// displayNames maps well-known publication domains to their display names.
// Sample data, adjustable; unknown domains are derived from host structure.
var displayNames = map[string]string{
	"arstechnica.com":    "Ars Technica",
	"axios.com":          "Axios",
	"bbc.co.uk":          "BBC",
	"bbc.com":            "BBC",
	"bloomberg.com":      "Bloomberg",
	"economist.com":      "The Economist",
	"ft.com":             "Financial Times",
	"nytimes.com":        "The New York Times",
	"reuters.com":        "Reuters",
	"techcrunch.com":     "TechCrunch",
	"theguardian.com":    "The Guardian",
	"theverge.com":       "The Verge",
	"washingtonpost.com": "The Washington Post",
	"wired.com":          "WIRED",
	"wsj.com":            "The Wall Street Journal",
}

// acronyms are words kept fully capitalized during title casing. Sample
// data, adjustable.
var acronyms = map[string]string{
	"ai":   "AI",
	"api":  "API",
	"aws":  "AWS",
	"ceo":  "CEO",
	"cfo":  "CFO",
	"doj":  "DOJ",
	"epa":  "EPA",
	"eu":   "EU",
	"fbi":  "FBI",
	"fcc":  "FCC",
	"fda":  "FDA",
	"ftc":  "FTC",
	"gdp":  "GDP",
	"gop":  "GOP",
	"imf":  "IMF",
	"ipo":  "IPO",
	"irs":  "IRS",
	"llm":  "LLM",
	"nasa": "NASA",
	"nato": "NATO",
	"nyc":  "NYC",
	"sec":  "SEC",
	"uk":   "UK",
	"un":   "UN",
	"us":   "US",
	"usa":  "USA",
	"vc":   "VC",
	"who":  "WHO",
}

var (
	numericSegmentRegex = regexp.MustCompile(`^\d+$`)
	dateSegmentRegex    = regexp.MustCompile(`^(\d{4}-\d{1,2}(-\d{1,2})?|\d{6,8})$`)
	fileExtensionRegex  = regexp.MustCompile(`\.(html?|php|aspx?|shtml)$`)
	segmentSeparators   = regexp.MustCompile(`[-_+.]+`)

	titleCaser = cases.Title(language.English)
)

// FormatURLAsTitle derives a readable title from a URL's path. This is the
// terminal enrichment fallback and always produces non-empty text.
func FormatURLAsTitle(rawURL, domain string) string {
	segment := lastMeaningfulSegment(rawURL)
	if segment == "" {
		return FormatDomain(domain)
	}

	title := titleCaseSegment(segment)
	if len(title) < minFormattedTitleLen {
		return title + " - " + FormatDomain(domain)
	}

	return title
}

// FormatDomain returns the display name for a publication domain, falling
// back to a name derived from host structure with the TLD stripped.
func FormatDomain(domain string) string {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
	if domain == "" {
		return "Unknown Source"
	}

	if name, ok := displayNames[domain]; ok {
		return name
	}

	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return titleCaseSegment(domain)
	}

	// blog.example.com names the site "example", not "blog";
	// example.co.uk names it "example".
	name := parts[len(parts)-2]
	if len(parts) >= 3 && secondLevelTLDs[parts[len(parts)-2]+"."+parts[len(parts)-1]] {
		name = parts[len(parts)-3]
	}

	return titleCaseSegment(name)
}

var secondLevelTLDs = map[string]bool{
	"ac.uk":  true,
	"co.jp":  true,
	"co.nz":  true,
	"co.uk":  true,
	"com.au": true,
	"com.br": true,
	"gov.uk": true,
	"or.jp":  true,
	"org.uk": true,
}

// lastMeaningfulSegment returns the last path segment that is not purely
// numeric or date-like, with any file extension stripped.
func lastMeaningfulSegment(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	for i := len(segments) - 1; i >= 0; i-- {
		segment := fileExtensionRegex.ReplaceAllString(segments[i], "")
		if segment == "" {
			continue
		}

		if numericSegmentRegex.MatchString(segment) || dateSegmentRegex.MatchString(segment) {
			continue
		}

		return segment
	}

	return ""
}

// titleCaseSegment converts a slug into title-cased words, preserving known
// acronyms.
func titleCaseSegment(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}

	words := strings.Fields(segmentSeparators.ReplaceAllString(segment, " "))

	for i, word := range words {
		if acronym, ok := acronyms[strings.ToLower(word)]; ok {
			words[i] = acronym
			continue
		}

		words[i] = titleCaser.String(strings.ToLower(word))
	}

	return strings.Join(words, " ")
}
