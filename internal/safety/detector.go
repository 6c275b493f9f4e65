// Package safety implements lexical crisis detection for chat text.
package safety

import (
	"strings"
)

// defaultLexicon lists self-harm and harm-to-others indicators. Matching is
// substring-based, so partial stems like "suicid" cover several word forms.
// False positives are accepted as the safer failure direction.
var defaultLexicon = []string{
	"suicid",
	"kill myself",
	"self-harm",
	"self harm",
	"hurt myself",
	"end my life",
	"want to die",
	"harm others",
	"hurt someone",
}

// Detector classifies text fragments as crisis-indicating via
// case-insensitive substring matching against a fixed lexicon.
type Detector struct {
	lexicon []string
}

// New creates a Detector using the built-in lexicon plus any operator
// supplied extra terms. Blank terms are ignored.
func New(extra ...string) *Detector {
	lexicon := make([]string, 0, len(defaultLexicon)+len(extra))
	lexicon = append(lexicon, defaultLexicon...)
	for _, term := range extra {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lexicon = append(lexicon, term)
		}
	}
	return &Detector{lexicon: lexicon}
}

// Detect reports whether text contains any lexicon term, ignoring case.
func (d *Detector) Detect(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range d.lexicon {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
