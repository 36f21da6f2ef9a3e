// Package export renders catalog completeness reports for sharing outside
// the TUI: a markdown summary for pasting into a ticket or wiki page, and an
// SVG score histogram for the weekly catalog review.
package export

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/score"
)

// RowScore pairs a row with its computed completeness score.
type RowScore struct {
	ID    model.RowID
	Title string
	Brand string
	Score int
}

// Summary is the aggregate completeness picture for one collection.
type Summary struct {
	Collection model.Collection
	Rows       int

	Mean   float64
	Median float64
	StdDev float64

	// Band counts follow the quick-filter boundaries: complete rows score
	// 100, critical rows fall below the listing threshold, partial is the
	// range in between.
	Complete int
	Partial  int
	Critical int

	// Missing tallies rows per missing-info category, in taxonomy order.
	Missing map[fieldmap.MissingCategory]int

	// Worst holds the lowest-scoring rows, worst first.
	Worst []RowScore

	// Histogram buckets scores into ten-point bins; the last bin includes 100.
	Histogram [10]int
}

// worstCount caps the "needs attention" table.
const worstCount = 10

// Summarize computes the completeness summary for a cache snapshot.
func Summarize(coll model.Collection, rows map[model.RowID]model.Record, schema fieldmap.Schema, report filter.Report) Summary {
	s := Summary{
		Collection: coll,
		Rows:       len(rows),
		Missing:    make(map[fieldmap.MissingCategory]int),
	}
	if len(rows) == 0 {
		return s
	}

	eng := filter.New(schema)
	eng.SetReport(report)

	scores := make([]float64, 0, len(rows))
	all := make([]RowScore, 0, len(rows))
	for id, rec := range rows {
		n := score.Compute(rec, schema)
		scores = append(scores, float64(n))
		all = append(all, RowScore{ID: id, Title: rec.Title(), Brand: rec.Brand(), Score: n})

		switch {
		case eng.Matches(id, rec, filter.Spec{Quick: filter.QuickComplete}):
			s.Complete++
		case eng.Matches(id, rec, filter.Spec{Quick: filter.QuickMissingCritical}):
			s.Critical++
		default:
			s.Partial++
		}

		bin := n / 10
		if bin > 9 {
			bin = 9
		}
		s.Histogram[bin]++
	}

	for _, cats := range report {
		for _, c := range cats {
			s.Missing[c]++
		}
	}

	sort.Float64s(scores)
	s.Mean = stat.Mean(scores, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, scores, nil)
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score < all[j].Score
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > worstCount {
		all = all[:worstCount]
	}
	s.Worst = all

	return s
}
