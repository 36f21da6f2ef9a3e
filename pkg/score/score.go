// Package score computes the 0-100 completeness score for catalog records.
//
// The remote store sometimes carries a pre-computed score column; when
// present that value wins outright, so the client can never drift from the
// spreadsheet-side formula. Otherwise the score is a weighted fill ratio over
// the collection's required and optional field lists.
//
// Everything here is a pure function of the record passed in: no hidden
// state, no cache mutation, same inputs always produce the same score.
package score

import (
	"math"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Weight split between the required and optional partitions. When a schema
// configures only one partition, that partition takes the full weight, so a
// required-only schema still reaches 100.
const (
	requiredWeight = 0.8
	optionalWeight = 0.2
)

// fallbackFields is the minimal identity set used when a collection has no
// scoring lists configured. Equal weighting across the four fields.
var fallbackFields = []string{
	model.FieldSKU,
	model.FieldTitle,
	model.FieldVendor,
	model.FieldProductType,
}

// Breakdown explains how a score was derived.
type Breakdown struct {
	Score          int
	FromServer     bool
	RequiredFilled int
	RequiredTotal  int
	OptionalFilled int
	OptionalTotal  int
}

// Compute returns the completeness score for rec under the given schema.
func Compute(rec model.Record, schema fieldmap.Schema) int {
	return Explain(rec, schema).Score
}

// Explain returns the score along with the fill counts behind it.
func Explain(rec model.Record, schema fieldmap.Schema) Breakdown {
	defer metrics.Timer(metrics.ScoreCompute)()

	if s, ok := rec.ServerScore(); ok {
		return Breakdown{Score: s, FromServer: true}
	}

	required := schema.Required
	optional := schema.Optional
	if !schema.ScoringConfigured() {
		required = fallbackFields
		optional = nil
	}

	reqFilled := countFilled(rec, required)
	optFilled := countFilled(rec, optional)

	wReq, wOpt := requiredWeight, optionalWeight
	switch {
	case len(required) == 0 && len(optional) == 0:
		return Breakdown{Score: 0}
	case len(optional) == 0:
		wReq, wOpt = 1, 0
	case len(required) == 0:
		wReq, wOpt = 0, 1
	}

	var ratio float64
	if len(required) > 0 {
		ratio += wReq * float64(reqFilled) / float64(len(required))
	}
	if len(optional) > 0 {
		ratio += wOpt * float64(optFilled) / float64(len(optional))
	}

	return Breakdown{
		Score:          clamp(int(math.Round(ratio * 100))),
		RequiredFilled: reqFilled,
		RequiredTotal:  len(required),
		OptionalFilled: optFilled,
		OptionalTotal:  len(optional),
	}
}

func countFilled(rec model.Record, fields []string) int {
	n := 0
	for _, f := range fields {
		if rec.Filled(f) {
			n++
		}
	}
	return n
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
