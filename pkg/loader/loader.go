// Package loader performs the startup bulk load: every row of a collection
// from the catalog backend, the missing-info analysis alongside, and a
// refresh of the local mirror. When the backend is unreachable the loader
// falls back to the mirror snapshot so the tool starts read-mostly offline.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// ErrNoData means neither the backend nor the mirror could supply rows.
var ErrNoData = errors.New("no catalog data available")

// Remote is the backend surface the loader needs.
type Remote interface {
	LoadAll(ctx context.Context, coll model.Collection) (map[string]model.Record, error)
	MissingInfo(ctx context.Context, coll model.Collection) (map[string][]string, error)
}

// Mirror is the local snapshot surface the loader needs. May be nil when
// running without a data directory.
type Mirror interface {
	SaveRows(coll model.Collection, rows map[string]model.Record) error
	LoadRows(coll model.Collection) (map[string]model.Record, error)
	LastSaved(coll model.Collection) (time.Time, error)
}

// Result is the outcome of loading one collection.
type Result struct {
	Collection model.Collection
	Rows       map[string]model.Record
	Report     filter.Report
	// FromSnapshot is true when the backend was unreachable and the rows
	// came from the local mirror.
	FromSnapshot bool
	// SnapshotAge is how stale the mirror was when used as the source.
	SnapshotAge time.Duration
	// Warnings collects non-fatal problems for the startup banner.
	Warnings []string
}

// Load fetches one collection. Rows and the missing-info analysis load
// concurrently; the analysis failing is a warning, not an error, because the
// missing-info filter fails closed without it.
func Load(ctx context.Context, remote Remote, mirror Mirror, coll model.Collection) (Result, error) {
	result := Result{Collection: coll}

	var rows map[string]model.Record
	var missing map[string][]string
	var missingErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = remote.LoadAll(gctx, coll)
		return err
	})
	g.Go(func() error {
		// Analysis errors must not cancel the row load.
		missing, missingErr = remote.MissingInfo(gctx, coll)
		return nil
	})

	if err := g.Wait(); err != nil {
		return loadFromMirror(mirror, coll, err)
	}

	result.Rows = rows
	if missingErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("missing-info analysis unavailable: %v", missingErr))
	} else {
		result.Report = BuildReport(missing)
	}

	if mirror != nil {
		if err := mirror.SaveRows(coll, rows); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("mirror refresh failed: %v", err))
		}
	}
	return result, nil
}

// loadFromMirror serves the last snapshot when the backend is down.
func loadFromMirror(mirror Mirror, coll model.Collection, cause error) (Result, error) {
	if mirror == nil {
		return Result{}, fmt.Errorf("loading %s: %w", coll, cause)
	}

	rows, err := mirror.LoadRows(coll)
	if err != nil || len(rows) == 0 {
		return Result{}, fmt.Errorf("loading %s (mirror empty): %w", coll, errors.Join(cause, ErrNoData))
	}

	result := Result{
		Collection:   coll,
		Rows:         rows,
		FromSnapshot: true,
		Warnings:     []string{fmt.Sprintf("backend unreachable, showing mirror snapshot: %v", cause)},
	}
	if saved, err := mirror.LastSaved(coll); err == nil && !saved.IsZero() {
		result.SnapshotAge = time.Since(saved)
	}
	debug.Log("loader: %s served from mirror (%d rows, age %s)", coll, len(rows), result.SnapshotAge)
	return result, nil
}

// LoadAll fetches several collections concurrently. A collection that fails
// outright is reported in errs; the others still load.
func LoadAll(ctx context.Context, remote Remote, mirror Mirror, colls []model.Collection) (map[model.Collection]Result, error) {
	results := make([]Result, len(colls))
	errs := make([]error, len(colls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, coll := range colls {
		g.Go(func() error {
			results[i], errs[i] = Load(gctx, remote, mirror, coll)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[model.Collection]Result, len(colls))
	var failed []error
	for i, coll := range colls {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		out[coll] = results[i]
	}
	if len(out) == 0 && len(failed) > 0 {
		return nil, errors.Join(failed...)
	}
	return out, errors.Join(failed...)
}

// BuildReport converts the backend's raw missing-info payload into a filter
// report, dropping category names outside the taxonomy.
func BuildReport(raw map[string][]string) filter.Report {
	if raw == nil {
		return nil
	}
	report := make(filter.Report, len(raw))
	for rawID, names := range raw {
		id := model.NormalizeRowID(rawID)
		if id.IsZero() {
			continue
		}
		var cats []fieldmap.MissingCategory
		for _, name := range names {
			cat, err := fieldmap.ParseMissingCategory(name)
			if err != nil {
				debug.Log("loader: dropping unknown missing-info category %q for row %s", name, id)
				continue
			}
			cats = append(cats, cat)
		}
		if len(cats) > 0 {
			report[id] = cats
		}
	}
	return report
}
