// Package titles cleans, validates, and synthesizes human-readable titles
// for resolved links.
package titles

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

const maxDecodePasses = 3

var (
	decimalEntityRegex = regexp.MustCompile(`&#(\d+);`)
	hexEntityRegex     = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// DecodeEntities replaces named HTML entities and decimal/hexadecimal numeric
// character references with their literal characters. Feeds and trackers
// frequently double-encode, so decoding repeats until the text stops
// changing, bounded to a few passes.
func DecodeEntities(text string) string {
	for i := 0; i < maxDecodePasses; i++ {
		decoded := decodeOnce(text)
		if decoded == text {
			return decoded
		}

		text = decoded
	}

	return text
}

func decodeOnce(text string) string {
	text = html.UnescapeString(text)

	text = decimalEntityRegex.ReplaceAllStringFunc(text, func(match string) string {
		digits := decimalEntityRegex.FindStringSubmatch(match)[1]

		code, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return match
		}

		return string(rune(code))
	})

	return hexEntityRegex.ReplaceAllStringFunc(text, func(match string) string {
		digits := hexEntityRegex.FindStringSubmatch(match)[1]

		code, err := strconv.ParseInt(digits, 16, 32)
		if err != nil {
			return match
		}

		return string(rune(code))
	})
}

// CleanTitle decodes entities, collapses whitespace, and trims the result.
func CleanTitle(text string) string {
	text = DecodeEntities(text)
	return strings.Join(strings.Fields(text), " ")
}
