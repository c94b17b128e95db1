// Package textprep cleans user and OCR text before classification.
package textprep

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// MinTextLength is the shortest text, in runes, worth analyzing after cleaning
const MinTextLength = 5

var (
	// emoticons block, matching what OCR engines tend to emit from screenshots
	emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F6FF}]`)
	// anything outside Thai, ASCII letters and digits, whitespace and sentence punctuation
	noisePattern      = regexp.MustCompile(`[^\x{0E01}-\x{0E59}a-zA-Z0-9\s.!?%:/]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	letterRunPattern  = regexp.MustCompile(`[\x{0E01}-\x{0E59}a-zA-Z]{5,}`)
)

// Preparer strips markup and normalizes text
type Preparer struct {
	policy *bluemonday.Policy
}

// New creates a Preparer using a strict (strip everything) HTML policy
func New() *Preparer {
	return &Preparer{policy: bluemonday.StrictPolicy()}
}

// Sanitize removes HTML, decodes entities, normalizes to NFC and trims.
// Sentence structure is preserved.
func (p *Preparer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	if strings.ContainsAny(text, "<&") {
		text = html.UnescapeString(p.policy.Sanitize(text))
	}
	return strings.TrimSpace(norm.NFC.String(text))
}

// PrepareOCR keeps meaningful OCR lines and cleans them
func (p *Preparer) PrepareOCR(text string) string {
	return CleanOCRText(FilterMeaningfulLines(p.Sanitize(text)))
}

// HasEnoughText reports whether text is long enough to analyze
func HasEnoughText(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinTextLength
}

// CleanOCRText drops emoji and OCR noise and collapses whitespace
func CleanOCRText(text string) string {
	text = emojiPattern.ReplaceAllString(text, "")
	text = noisePattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FilterMeaningfulLines keeps lines with a run of at least five letters that
// also contain whitespace. OCR fragments like "|||" or "A1" are dropped.
func FilterMeaningfulLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if letterRunPattern.MatchString(line) && strings.ContainsAny(line, " \t") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
