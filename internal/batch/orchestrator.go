// Package batch drives the bridge client across many independent units of
// work (entity types or input files) and produces an accounting of outcomes.
// A single failing unit never terminates a batch.
package batch

import (
	"context"
	"sort"
	"time"

	"rulemark/internal/bridge"
	"rulemark/internal/pkg/logger"
)

// Renderer is the slice of the bridge client the orchestrator needs.
type Renderer interface {
	Summary(ctx context.Context) (bridge.Summary, error)
	RenderType(ctx context.Context, entityType string, opts bridge.RenderOpts) ([]bridge.Entry, error)
	RenderFile(ctx context.Context, filePath string, opts bridge.RenderOpts) (*bridge.FileResult, error)
}

// Sink receives rendered entries as caller-owned artifacts.
type Sink interface {
	WriteEntry(ctx context.Context, entityType string, e bridge.Entry) error
	WriteMetadata(ctx context.Context, entityType string, e bridge.Entry) error
}

// UnitResult is the outcome of one unit of batch work. Presence of a row does
// not imply success; consumers must check Errors.
type UnitResult struct {
	Unit      string `json:"unit"`
	Entries   int    `json:"entries"`
	Errors    int    `json:"errors"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Result aggregates a whole batch run. Elapsed is the wall-clock span of the
// batch, not the sum of per-unit times, so Rate reflects real throughput.
type Result struct {
	Units     []UnitResult  `json:"units"`
	Entries   int           `json:"entries"`
	Errors    int           `json:"errors"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// Rate returns entries per second over the batch wall clock.
func (r *Result) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Entries) / r.Elapsed.Seconds()
}

// Orchestrator runs batches sequentially, one unit fully before the next,
// in lexicographic unit order for reproducible output.
type Orchestrator struct {
	renderer Renderer
	sink     Sink
	log      *logger.Logger
}

func New(renderer Renderer, sink Sink, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Orchestrator{
		renderer: renderer,
		sink:     sink,
		log:      log.WithComponent("batch"),
	}
}

// RenderAll discovers the unit list from the dataset summary, then renders
// every entity type with no limit, persisting entries through the sink.
// Summary failure is an orchestrator-level fault and propagates; per-unit
// render failures are recorded in the unit's row and iteration continues.
func (o *Orchestrator) RenderAll(ctx context.Context) (*Result, error) {
	summary, err := o.renderer.Summary(ctx)
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Strings(types)

	res := &Result{StartedAt: time.Now().UTC()}
	start := time.Now()

	for _, entityType := range types {
		log := o.log.WithUnit(entityType)
		log.Info("rendering type", "declared_count", summary[entityType].Count)

		unitStart := time.Now()
		entries, err := o.renderer.RenderType(ctx, entityType, bridge.RenderOpts{})
		if err == nil {
			err = o.writeEntries(ctx, entityType, entries, false)
		}

		row := UnitResult{
			Unit:      entityType,
			ElapsedMS: time.Since(unitStart).Milliseconds(),
		}
		if err != nil {
			row.Errors = 1
			row.Error = err.Error()
			log.Warn("unit failed", "error", err.Error())
		} else {
			row.Entries = len(entries)
			log.Info("unit rendered",
				"entries", len(entries),
				"duration_ms", row.ElapsedMS,
			)
		}
		res.Units = append(res.Units, row)
	}

	o.finalize(res, start)
	return res, nil
}

// RenderSet renders a curated list of input files in sorted order. Files that
// yield zero entries are recorded as skipped (a warning, not an error). Each
// entry's metadata is persisted alongside its markdown.
func (o *Orchestrator) RenderSet(ctx context.Context, inputFiles []string) (*Result, error) {
	files := append([]string(nil), inputFiles...)
	sort.Strings(files)

	res := &Result{StartedAt: time.Now().UTC()}
	start := time.Now()

	for _, file := range files {
		log := o.log.WithUnit(file)
		log.Info("rendering file")

		unitStart := time.Now()
		row := UnitResult{Unit: file}

		fr, err := o.renderer.RenderFile(ctx, file, bridge.RenderOpts{})
		if err == nil && len(fr.Entries) > 0 {
			err = o.writeEntries(ctx, fr.EntityType, fr.Entries, true)
		}

		switch {
		case err != nil:
			row.Errors = 1
			row.Error = err.Error()
			log.Warn("unit failed", "error", err.Error())
		case len(fr.Entries) == 0:
			row.Skipped = true
			log.Warn("no entries found, skipping")
		default:
			row.Entries = len(fr.Entries)
			log.Info("unit rendered",
				"entity_type", fr.EntityType,
				"entries", len(fr.Entries),
			)
		}

		row.ElapsedMS = time.Since(unitStart).Milliseconds()
		res.Units = append(res.Units, row)
	}

	o.finalize(res, start)
	return res, nil
}

func (o *Orchestrator) writeEntries(ctx context.Context, entityType string, entries []bridge.Entry, withMetadata bool) error {
	for _, e := range entries {
		if err := o.sink.WriteEntry(ctx, entityType, e); err != nil {
			return err
		}
		if withMetadata {
			if err := o.sink.WriteMetadata(ctx, entityType, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Orchestrator) finalize(res *Result, start time.Time) {
	for _, row := range res.Units {
		res.Entries += row.Entries
		res.Errors += row.Errors
	}
	res.Elapsed = time.Since(start)
	res.ElapsedMS = res.Elapsed.Milliseconds()

	o.log.Info("batch complete",
		"units", len(res.Units),
		"entries", res.Entries,
		"errors", res.Errors,
		"duration_ms", res.ElapsedMS,
	)
}
