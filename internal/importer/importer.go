// Package importer submits spreadsheet rows to the inventory API as a
// bounded-concurrency batch and reports exactly which rows were stored.
package importer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
	"github.com/fairyhunter13/nexus-inventory/internal/obs"
	"github.com/fairyhunter13/nexus-inventory/internal/sheet"
)

// DefaultConcurrency bounds in-flight creates when Options leaves it unset.
const DefaultConcurrency = 8

// Creator stores one draft. *client.Client satisfies it.
type Creator interface {
	Create(ctx context.Context, d model.Draft) (model.Product, error)
}

// Options tunes a batch.
type Options struct {
	Concurrency int
}

// RowResult is the outcome of a single row.
type RowResult struct {
	Row     int
	Draft   model.Draft
	Product model.Product
	Err     error
}

// OK reports whether the row was stored.
func (r RowResult) OK() bool { return r.Err == nil }

// Report aggregates a batch. Rows is in input order.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Rows      []RowResult
}

// Failures returns the failed rows in input order.
func (r Report) Failures() []RowResult {
	var out []RowResult
	for _, row := range r.Rows {
		if !row.OK() {
			out = append(out, row)
		}
	}
	return out
}

// Run creates one product per row with at most opts.Concurrency requests in
// flight. Rows are independent: a failure does not stop or undo the others.
// Rows not yet started when ctx is done fail with ctx's error.
func Run(ctx context.Context, c Creator, rows []sheet.Row, opts Options) Report {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]RowResult, len(rows))
	var succeeded atomic.Int64

	// The group's derived context is not used: one failing row must not
	// cancel its siblings.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, row := range rows {
		results[i] = RowResult{Row: row.Number, Draft: row.Draft}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			p, err := c.Create(ctx, row.Draft)
			if err != nil {
				results[i].Err = err
				obs.Logger.Warn("import_row_failed", "row", row.Number, "name", row.Draft.Name, "error", err)
				return nil
			}
			results[i].Product = p
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Total: len(rows), Succeeded: int(succeeded.Load()), Rows: results}
	rep.Failed = rep.Total - rep.Succeeded
	obs.Logger.Info("import_finished", "total", rep.Total, "succeeded", rep.Succeeded, "failed", rep.Failed)
	return rep
}
