package titles

import "strings"

// maxDashSuffixLen bounds how long a trailing dash segment can be while
// still plausibly being an appended publication name. Longer segments are
// assumed to be part of the sentence and left untouched.
const maxDashSuffixLen = 30

var dashSeparators = []string{" — ", " – ", " - "}

// StripPublicationSuffix removes a trailing "| Publication Name" segment and,
// conservatively, a short trailing dash segment that looks like an appended
// publication name.
func StripPublicationSuffix(text string) string {
	text = strings.TrimSpace(text)

	if before, _, found := strings.Cut(text, " | "); found && strings.TrimSpace(before) != "" {
		return strings.TrimSpace(before)
	}

	for _, sep := range dashSeparators {
		idx := strings.LastIndex(text, sep)
		if idx <= 0 {
			continue
		}

		suffix := strings.TrimSpace(text[idx+len(sep):])
		head := strings.TrimSpace(text[:idx])

		// Only strip when the tail is short, name-shaped, and shorter
		// than what remains; mid-sentence dashes stay.
		if suffix != "" && len(suffix) <= maxDashSuffixLen && len(suffix) < len(head) && !strings.ContainsAny(suffix, ".!?,") {
			return head
		}

		break
	}

	return text
}
