package ocr

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
)

// ErrNoProfileMatch is returned when no profile name or alias appears in the
// text.
var ErrNoProfileMatch = errors.New("no profile name found in text")

// Match describes which profile a piece of annotation text refers to.
type Match struct {
	// Profile is the display name of the matched profile.
	Profile string `json:"profile"`

	// Key is the normalized name or alias that was found in the text.
	Key string `json:"matched"`

	// Text is the folded text that was searched.
	Text string `json:"text"`
}

// IdentifyProfile finds the profile whose name or alias appears in text as a
// whole phrase. Case, punctuation and runs of whitespace are ignored, so
// "T2_DOMED:" and "t2 domed" both select "T2 domed".
//
// Longer keys are tried first, which keeps "t1 flat" from losing to a shorter
// alias that happens to be a prefix of another word sequence.
func IdentifyProfile(text string, reg *profile.Registry) (*Match, error) {
	folded := fold(text)
	padded := " " + folded + " "

	lookup := reg.Lookup()
	for _, key := range profile.SortedKeys(lookup) {
		k := fold(key)
		if k == "" {
			continue
		}
		if strings.Contains(padded, " "+k+" ") {
			return &Match{Profile: lookup[key], Key: key, Text: folded}, nil
		}
	}
	return nil, ErrNoProfileMatch
}

func fold(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, profile.Normalize(s))
	return strings.Join(strings.Fields(s), " ")
}
