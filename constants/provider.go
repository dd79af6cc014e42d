package constants

import (
	"strings"
)

// Provider identifies one of the supported BNPL providers.
type Provider string

const (
	Klarna   Provider = "Klarna"
	Affirm   Provider = "Affirm"
	Afterpay Provider = "Afterpay"
	Sezzle   Provider = "Sezzle"
	Zip      Provider = "Zip"
	PayPal   Provider = "PayPal"
)

var allProviders = []Provider{
	Klarna,
	Affirm,
	Afterpay,
	Sezzle,
	Zip,
	PayPal,
}

// Providers returns the supported providers in their canonical order.
func Providers() []Provider {
	out := make([]Provider, len(allProviders))
	copy(out, allProviders)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allProviders))
	for i, p := range allProviders {
		result[i] = string(p)
	}
	return result
}

// Canonicalize maps a free-form provider label onto the closed set.
func Canonicalize(input string) (Provider, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Provider{
		"quadpay":          Zip,
		"zip pay":          Zip,
		"zip.co":           Zip,
		"paypal pay in 4":  PayPal,
		"pay in 4":         PayPal,
		"paypal credit":    PayPal,
		"klarna pay in 4":  Klarna,
		"afterpay us":      Afterpay,
		"affirm financing": Affirm,
	}

	if p, ok := synonyms[normalized]; ok {
		return p, true
	}

	for _, p := range allProviders {
		if normalized == strings.ToLower(string(p)) {
			return p, true
		}
	}

	return "", false
}
