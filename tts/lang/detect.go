// Package lang guesses the language of a sentence so each one is spoken
// with a matching voice.
package lang

import (
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"

	"github.com/dgnsrekt/docent/tts"
)

// tags maps detectable languages to the BCP-47 tag handed to voices.
var tags = map[lingua.Language]string{
	lingua.Korean:   "ko-KR",
	lingua.English:  "en-US",
	lingua.Japanese: "ja-JP",
	lingua.Chinese:  "zh-CN",
	lingua.French:   "fr-FR",
	lingua.German:   "de-DE",
	lingua.Spanish:  "es-ES",
}

// minLetters is the shortest text worth running the detector on.
const minLetters = 4

// Detector picks a tag per sentence, falling back when unsure.
type Detector struct {
	detector lingua.LanguageDetector
	fallback string
}

// NewDetector creates a detector. fallback must be a valid BCP-47 tag.
func NewDetector(fallback string) *Detector {
	langs := make([]lingua.Language, 0, len(tags))
	for l := range tags {
		langs = append(langs, l)
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			WithMinimumRelativeDistance(0.1).
			Build(),
		fallback: language.Make(fallback).String(),
	}
}

// Detect returns the tag for text.
func (d *Detector) Detect(text string) string {
	letters := 0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			// hangul is only used for Korean
			return tags[lingua.Korean]
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			return tags[lingua.Japanese]
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters < minLetters {
		return d.fallback
	}

	l, ok := d.detector.DetectLanguageOf(strings.TrimSpace(text))
	if !ok {
		return d.fallback
	}
	if tag, ok := tags[l]; ok {
		return tag
	}
	return d.fallback
}

// Func adapts the detector to a tts.LanguageFunc.
func (d *Detector) Func() tts.LanguageFunc {
	return d.Detect
}

// ForConfig returns the language function for a configured language:
// detection for "auto", otherwise a fixed tag.
func ForConfig(configured, fallback string) tts.LanguageFunc {
	if strings.EqualFold(configured, tts.LanguageAuto) {
		return NewDetector(fallback).Func()
	}
	return tts.FixedLanguage(configured)
}
