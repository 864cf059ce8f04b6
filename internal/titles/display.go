package titles

import "strings"

// Provenance tags where a display title came from.
type Provenance string

const (
	// ProvenanceExtracted marks a title taken from the link's own metadata.
	ProvenanceExtracted Provenance = "extracted"

	// ProvenanceFallback marks a title taken from the fallback field.
	ProvenanceFallback Provenance = "fallback"

	// ProvenanceGenerated marks a title synthesized from the URL path.
	ProvenanceGenerated Provenance = "generated"
)

// DisplayTitle returns the best human-readable title for a link: the stored
// title, else the fallback title (each decoded and suffix-stripped), else a
// title formatted from the URL. It never returns empty text.
func DisplayTitle(title, fallbackTitle, pageURL, domain string) (string, Provenance) {
	if cleaned := sanitize(title); cleaned != "" {
		return cleaned, ProvenanceExtracted
	}

	if cleaned := sanitize(fallbackTitle); cleaned != "" {
		return cleaned, ProvenanceFallback
	}

	return FormatURLAsTitle(pageURL, domain), ProvenanceGenerated
}

func sanitize(text string) string {
	return strings.TrimSpace(StripPublicationSuffix(CleanTitle(text)))
}
