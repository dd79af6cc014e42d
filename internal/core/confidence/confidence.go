// Package confidence scores a partial extraction in scored mode.
package confidence

import (
	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

const (
	Max = 100
	Min = 0
)

// Penalties subtracted per expected field that is absent. Date and amount
// dominate because a payment without them is of little use.
var penalties = map[constants.Field]int{
	constants.FieldDueDate:          35,
	constants.FieldAmount:           35,
	constants.FieldInstallmentIndex: 10,
	constants.FieldInstallmentTotal: 10,
	constants.FieldAutopay:          5,
}

// Penalty returns the deduction applied when field is expected but absent.
func Penalty(field constants.Field) int {
	return penalties[field]
}

// Found reports which fields an extraction produced.
type Found interface {
	Has(field constants.Field) bool
}

// Report is the outcome of scoring one extraction.
type Report struct {
	Score    int
	Warnings []string
	Missing  []constants.Field
}

// Score starts at Max and subtracts the penalty for every expected field that
// was not found, flooring at Min. problems carries parse notes for fields
// whose text was located but could not be used; those fields are warned about
// as unparseable rather than not found. Warnings follow constants.AllFields
// order regardless of the order of expected.
func Score(found Found, expected []constants.Field, problems map[constants.Field]string) Report {
	want := make(map[constants.Field]bool, len(expected))
	for _, f := range expected {
		want[f] = true
	}

	r := Report{Score: Max, Warnings: []string{}, Missing: []constants.Field{}}
	for _, f := range constants.AllFields {
		if !want[f] || found.Has(f) {
			continue
		}
		r.Score -= Penalty(f)
		r.Missing = append(r.Missing, f)
		r.Warnings = append(r.Warnings, Warning(f, problems[f] != ""))
	}
	if r.Score < Min {
		r.Score = Min
	}
	return r
}

// Warning is the human-readable message for an absent field.
func Warning(field constants.Field, unparseable bool) string {
	if unparseable {
		return field.Label() + " text could not be parsed"
	}
	return field.Label() + " not found"
}
