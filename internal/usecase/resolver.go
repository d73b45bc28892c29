package usecase

import (
	"strings"

	"github.com/pokefinder/backend/internal/domain"
)

const (
	// DefaultLanguage is the language code used for category and description
	DefaultLanguage = "en"

	// NoCategory is returned when a species has no genus in the requested language
	NoCategory = "No category available."

	// NoDescription is returned when a species has no flavor text in the requested language
	NoDescription = "No description available."
)

// lineBreaks covers the separators the catalog embeds in localized text
var lineBreaks = strings.NewReplacer(
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\f", " ",
	"\v", " ",
	"\u0085", " ",
	"\u2028", " ",
	"\u2029", " ",
)

// ResolveCategory returns the first genus in lang as a single line, or NoCategory
func ResolveCategory(species *domain.Species, lang string) string {
	if species == nil {
		return NoCategory
	}
	if text, ok := firstInLanguage(species.Genera, lang, flattenLines); ok {
		return text
	}
	return NoCategory
}

// ResolveDescription returns the first flavor text in lang as a single line, or NoDescription
func ResolveDescription(species *domain.Species, lang string) string {
	if species == nil {
		return NoDescription
	}
	if text, ok := firstInLanguage(species.FlavorTexts, lang, flattenLines); ok {
		return text
	}
	return NoDescription
}

// firstInLanguage returns the first entry tagged exactly lang whose normalized text is not blank
func firstInLanguage(entries []domain.LocalizedText, lang string, normalize func(string) string) (string, bool) {
	for _, entry := range entries {
		if entry.Language != lang {
			continue
		}
		if text := normalize(entry.Text); text != "" {
			return text, true
		}
	}
	return "", false
}

func flattenLines(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
