package classifier

import "strings"

// isSentenceDelimiter reports sentence-ending punctuation, including the
// Devanagari danda that shows up in some pasted text.
func isSentenceDelimiter(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}

// SplitSentences breaks text into trimmed, non-empty sentences
func SplitSentences(text string) []string {
	parts := strings.FieldsFunc(text, isSentenceDelimiter)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
