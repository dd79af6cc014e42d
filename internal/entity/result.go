package entity

import (
	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// ResultKind discriminates the ExtractionResult variants.
type ResultKind string

const (
	KindSuccess              ResultKind = "success"
	KindUnrecognizedProvider ResultKind = "unrecognized_provider"
	KindExtractionFailure    ResultKind = "extraction_failure"
)

// ExtractionResult is the outcome for one fragment. Exactly one of Success,
// Unrecognized and Failure is set, matching Kind.
type ExtractionResult struct {
	Index        int                   `json:"index"`
	Kind         ResultKind            `json:"kind"`
	Success      *Success              `json:"success,omitempty"`
	Unrecognized *UnrecognizedProvider `json:"unrecognized,omitempty"`
	Failure      *ExtractionFailure    `json:"failure,omitempty"`
}

// Success carries the payment. Confidence is nil in legacy mode.
type Success struct {
	Payment    ExtractedPayment `json:"payment"`
	Confidence *int             `json:"confidence,omitempty"`
	Warnings   []string         `json:"warnings"`
}

// UnrecognizedProvider is reported when zero or several providers matched.
type UnrecognizedProvider struct {
	RawFragmentPreview string               `json:"raw_fragment_preview"`
	Candidates         []constants.Provider `json:"candidates"`
}

// ExtractionFailure is reported when a recognized fragment lacks fields the
// mode cannot do without. An empty Provider means unknown.
type ExtractionFailure struct {
	Provider         constants.Provider `json:"provider,omitempty"`
	MissingFields    []constants.Field  `json:"missing_fields"`
	SanitizedMessage string             `json:"sanitized_message"`
}

func NewSuccess(index int, payment ExtractedPayment, confidence *int, warnings []string) ExtractionResult {
	if warnings == nil {
		warnings = []string{}
	}
	return ExtractionResult{
		Index:   index,
		Kind:    KindSuccess,
		Success: &Success{Payment: payment, Confidence: confidence, Warnings: warnings},
	}
}

func NewUnrecognized(index int, preview string, candidates []constants.Provider) ExtractionResult {
	if candidates == nil {
		candidates = []constants.Provider{}
	}
	return ExtractionResult{
		Index:        index,
		Kind:         KindUnrecognizedProvider,
		Unrecognized: &UnrecognizedProvider{RawFragmentPreview: preview, Candidates: candidates},
	}
}

func NewFailure(index int, provider constants.Provider, missing []constants.Field, message string) ExtractionResult {
	if missing == nil {
		missing = []constants.Field{}
	}
	return ExtractionResult{
		Index:   index,
		Kind:    KindExtractionFailure,
		Failure: &ExtractionFailure{Provider: provider, MissingFields: missing, SanitizedMessage: message},
	}
}

// BatchResult is the engine output for one call: one result per fragment in
// input order, plus schedules built from the successes only.
type BatchResult struct {
	Mode                constants.Mode                          `json:"mode"`
	Results             []ExtractionResult                      `json:"results"`
	SchedulesByProvider map[constants.Provider]*PaymentSchedule `json:"schedules_by_provider"`
}

// Count returns how many results have the given kind.
func (b *BatchResult) Count(kind ResultKind) int {
	n := 0
	for _, r := range b.Results {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Payments flattens every successful payment in result order.
func (b *BatchResult) Payments() []ExtractedPayment {
	var out []ExtractedPayment
	for _, r := range b.Results {
		if r.Success != nil {
			out = append(out, r.Success.Payment)
		}
	}
	return out
}
