// Package filter evaluates the visible subset of the record cache for the
// list view and the missing-information report view.
//
// A filter specification combines four independent predicate axes: quick
// filter (score band or selection), brand equality, free-text search, and
// missing-info category. A record is visible iff it passes every active
// axis; no axis can force visibility on its own. Axes are evaluated
// cheapest-first with short-circuiting.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/score"
)

// Quick selects a score band or the manual selection.
type Quick int

const (
	QuickAll Quick = iota
	QuickMissingCritical
	QuickMissingSome
	QuickComplete
	QuickSelected
)

// Score band boundaries for the quick filter. A record is complete only at a
// full score; below the critical threshold too much is missing to list.
const (
	completeScore     = 100
	criticalThreshold = 60
)

// String returns the quick filter's display label.
func (q Quick) String() string {
	switch q {
	case QuickMissingCritical:
		return "missing-critical"
	case QuickMissingSome:
		return "missing-some"
	case QuickComplete:
		return "complete"
	case QuickSelected:
		return "selected"
	default:
		return "all"
	}
}

// Report is the per-row output of the external "what's missing" analysis,
// keyed by canonical row identifier. Rows without an entry fail every
// missing-info predicate (fail-closed): no analysis means no evidence the
// row belongs in a missing-info view.
type Report map[model.RowID][]fieldmap.MissingCategory

// Has reports whether the analysis flagged the row with the category.
func (r Report) Has(id model.RowID, cat fieldmap.MissingCategory) bool {
	cats, ok := r[id]
	if !ok {
		metrics.MissingInfoRows.Miss()
		return false
	}
	metrics.MissingInfoRows.Hit()
	for _, c := range cats {
		if c == cat {
			return true
		}
	}
	return false
}

// Spec is one filter combination. The zero value matches everything.
type Spec struct {
	Quick   Quick
	Brand   string                   // exact brand, case-insensitive; "" = off
	Search  string                   // free-text substring; "" = off
	Missing fieldmap.MissingCategory // "" = off
}

// Active reports whether any predicate is switched on.
func (s Spec) Active() bool {
	return s.Quick != QuickAll || s.Brand != "" || strings.TrimSpace(s.Search) != "" || s.Missing != ""
}

// Engine evaluates filter specifications against cache snapshots.
// It is a pure evaluator; all state is provided per call or at construction.
type Engine struct {
	schema   fieldmap.Schema
	report   Report
	selected map[model.RowID]bool
}

// New returns an engine for one collection's schema.
func New(schema fieldmap.Schema) *Engine {
	return &Engine{schema: schema}
}

// SetReport installs the latest missing-info analysis output.
func (e *Engine) SetReport(r Report) { e.report = r }

// SetSelected installs the manual row selection used by QuickSelected.
func (e *Engine) SetSelected(sel map[model.RowID]bool) { e.selected = sel }

// Visible returns the identifiers of records passing the spec, ordered by
// numeric row identifier where possible.
func (e *Engine) Visible(snap map[model.RowID]model.Record, spec Spec) []model.RowID {
	defer metrics.Timer(metrics.FilterEval)()

	out := make([]model.RowID, 0, len(snap))
	for id, rec := range snap {
		if e.Matches(id, rec, spec) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessRowID(out[i], out[j]) })
	return out
}

// Matches reports whether a single record passes every active predicate.
func (e *Engine) Matches(id model.RowID, rec model.Record, spec Spec) bool {
	if !e.matchQuick(id, rec, spec.Quick) {
		return false
	}
	if !matchBrand(rec, spec.Brand) {
		return false
	}
	if !e.matchSearch(rec, spec.Search) {
		return false
	}
	if spec.Missing != "" && !e.report.Has(id, spec.Missing) {
		return false
	}
	return true
}

func (e *Engine) matchQuick(id model.RowID, rec model.Record, q Quick) bool {
	switch q {
	case QuickAll:
		return true
	case QuickSelected:
		return e.selected[id]
	}

	s := score.Compute(rec, e.schema)
	switch q {
	case QuickComplete:
		return s >= completeScore
	case QuickMissingCritical:
		return s < criticalThreshold
	case QuickMissingSome:
		return s >= criticalThreshold && s < completeScore
	default:
		return true
	}
}

func matchBrand(rec model.Record, brand string) bool {
	if brand == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(rec.Brand()), strings.TrimSpace(brand))
}

func (e *Engine) matchSearch(rec model.Record, query string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}

	fields := e.schema.Searchable
	if len(fields) == 0 {
		fields = []string{model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(rec.Field(f)), query) {
			return true
		}
	}
	return false
}

// lessRowID orders numerically when both identifiers are integers, falling
// back to lexicographic order for the odd non-numeric key.
func lessRowID(a, b model.RowID) bool {
	na, errA := strconv.ParseInt(string(a), 10, 64)
	nb, errB := strconv.ParseInt(string(b), 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	if errA == nil {
		return true
	}
	if errB == nil {
		return false
	}
	return a < b
}
