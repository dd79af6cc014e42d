package provider

import (
	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// Classification is the outcome of matching one fragment against every
// signature.
type Classification struct {
	Provider   constants.Provider   // set only when exactly one signature matched
	Candidates []constants.Provider // every provider whose signature matched
}

// Recognized reports whether a single provider was identified.
func (c Classification) Recognized() bool {
	return c.Provider != ""
}

// Ambiguous reports whether more than one provider matched.
func (c Classification) Ambiguous() bool {
	return len(c.Candidates) > 1
}

// Classify tests fragment against all signatures. Zero or multiple matches
// leave Provider empty; an ambiguous fragment is never resolved by guessing.
func Classify(fragment string) Classification {
	var c Classification
	for _, sig := range signatures {
		if sig.Match(fragment) {
			c.Candidates = append(c.Candidates, sig.Provider)
		}
	}
	if len(c.Candidates) == 1 {
		c.Provider = c.Candidates[0]
	}
	return c
}
