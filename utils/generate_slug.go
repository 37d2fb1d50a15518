package utils

import (
	"regexp"
	"strings"
)

var (
	// Folds the accented vowels and ñ/ç onto their plain ASCII letter.
	accentFolder = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i",
		"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ñ", "n",
		"ç", "c",
	)

	disallowedChars = regexp.MustCompile(`[^a-z0-9 -]`)
	spaceRuns       = regexp.MustCompile(` +`)
	hyphenRuns      = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug turns arbitrary text into a URL-safe slug made of lowercase
// ASCII letters, digits and single hyphens. Text without any letter or digit
// yields an empty string.
func GenerateSlug(text string) string {
	slug := strings.TrimSpace(strings.ToLower(text))
	slug = accentFolder.Replace(slug)
	slug = disallowedChars.ReplaceAllString(slug, "")
	slug = spaceRuns.ReplaceAllString(slug, "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
