// Package provider holds the fingerprint table for the supported BNPL
// providers and classifies reminder fragments against it.
package provider

import (
	"regexp"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// Signature is the fingerprint set of one provider. A fragment matches the
// provider when any fingerprint matches.
type Signature struct {
	Provider     constants.Provider
	Fingerprints []*regexp.Regexp
}

func (s Signature) Match(fragment string) bool {
	for _, re := range s.Fingerprints {
		if re.MatchString(fragment) {
			return true
		}
	}
	return false
}

// Fingerprints are sender-name fragments, sender domains and fixed product
// phrases. They must stay mutually exclusive for real reminders: generic
// phrases such as "pay in 4" or a bare "zip" are absent because several
// providers (and postal addresses) use them. Bare brand names that are also
// English words only count at the start of a line followed by a separator,
// the way sender lines read. Re-run the exclusivity tests whenever this table
// changes.
var signatures = []Signature{
	{
		Provider: constants.Klarna,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bklarna\b`),
		},
	},
	{
		Provider: constants.Affirm,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\baffirm(?:\.com)?\s+(?:payment|loan|account|autopay|app|team|inc)`),
			regexp.MustCompile(`(?i)\bfrom\s*:?\s*affirm\b`),
			regexp.MustCompile(`(?i)@affirm\.com\b`),
			regexp.MustCompile(`(?i)\byour\s+affirm\b`),
			regexp.MustCompile(`(?im)^\s*affirm\s*[:\-]`),
			regexp.MustCompile(`(?i)\baffirm\s+(?:reminder|notification)s?\b`),
		},
	},
	{
		Provider: constants.Afterpay,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bafterpay\b`),
		},
	},
	{
		Provider: constants.Sezzle,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bsezzle\b`),
		},
	},
	{
		Provider: constants.Zip,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bzip\s+(?:payment|installment|order|account|app|team|pay)s?\b`),
			regexp.MustCompile(`(?i)\bzip\.co\b`),
			regexp.MustCompile(`(?i)\bquadpay\b`),
			// "Zip: your payment..." but not "Zip: 94107" or "Zip: SW1A 1AA"
			regexp.MustCompile(`(?im)^\s*zip\s*(?::|\s-)\s*[a-z]{3,}\b`),
		},
	},
	{
		Provider: constants.PayPal,
		Fingerprints: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bpaypal\b`),
		},
	},
}

// Signatures returns the table in canonical provider order.
func Signatures() []Signature {
	out := make([]Signature, len(signatures))
	copy(out, signatures)
	return out
}
