package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var validSlug = regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "accented words", input: "Café del Mar", expected: "cafe-del-mar"},
		{name: "padding and repeated punctuation", input: "   Hello---World!!  ", expected: "hello-world"},
		{name: "empty string", input: "", expected: ""},
		{name: "only spaces", input: "   ", expected: ""},
		{name: "only punctuation", input: "!@#$%^&*()", expected: ""},
		{name: "spanish letters", input: "Niño Español Año", expected: "nino-espanol-ano"},
		{name: "french letters", input: "Façade élève", expected: "facade-eleve"},
		{name: "uppercase accents", input: "ÉCOLE ÀÎÔÛ", expected: "ecole-aiou"},
		{name: "digits kept", input: "Studio Reel 2024", expected: "studio-reel-2024"},
		{name: "multiple spaces", input: "Too    Many     Spaces", expected: "too-many-spaces"},
		{name: "space hyphen mix", input: "a - b", expected: "a-b"},
		{name: "leading and trailing hyphens", input: "--edge case--", expected: "edge-case"},
		{name: "unmapped letters are dropped", input: "Straße", expected: "strae"},
		{name: "underscores dropped", input: "snake_case title", expected: "snakecase-title"},
		{name: "tabs are not separators", input: "tab\tseparated", expected: "tabseparated"},
		{name: "already a slug", input: "already-a-slug", expected: "already-a-slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateSlug(tt.input))
		})
	}
}

func TestGenerateSlugIsIdempotent(t *testing.T) {
	inputs := []string{
		"Café del Mar",
		"   Hello---World!!  ",
		"Ñandú & Çedilla -- 42",
		"-- --- --",
		"Ünïcödé Tïtlé",
		"",
	}

	for _, input := range inputs {
		once := GenerateSlug(input)
		assert.Equal(t, once, GenerateSlug(once), "input %q", input)
	}
}

func TestGenerateSlugOutputShape(t *testing.T) {
	inputs := []string{
		"àáâãäå èéêë ìíîï òóôõö ùúûü ñ ç",
		"Árbol - Ñu - 2024 -",
		"  - ólé -  olé - ",
		"123 456",
		"é-é--é---é",
	}

	for _, input := range inputs {
		out := GenerateSlug(input)
		assert.Regexp(t, validSlug, out, "input %q", input)
		assert.NotContains(t, out, "--", "input %q", input)
	}
}
