package analytics

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// minDetectRunes is the shortest body worth running detection on.
const minDetectRunes = 40

// DefaultLanguages are the candidates considered when none are configured.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
}

// LanguageDetector reports the ISO 639-1 code of a text's language.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector over languages, or DefaultLanguages when empty.
func NewLanguageDetector(languages ...lingua.Language) *LanguageDetector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(languages...).Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code for text, or nil when it is too short or undetermined.
func (d *LanguageDetector) Detect(text string) *string {
	if len([]rune(strings.TrimSpace(text))) < minDetectRunes {
		return nil
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return nil
	}
	code := strings.ToLower(language.IsoCode639_1().String())
	return &code
}
