package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"optioncatalog/internal/metadata"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/models"
	"optioncatalog/internal/storage"
	"optioncatalog/logger"
)

// Tier names, also the top-level storage directories.
const (
	TierBars         = "bars"
	TierQuotes       = "quotes"
	TierContracts    = "contracts"
	TierOpenInterest = "open_interest"
)

// schema binds a record type to its partition encoding.
type schema[R any] struct {
	name       string
	instrument func(R) models.InstrumentID
	// ts orders records and defines partition ranges.
	ts     func(R) int64
	// encode returns the partition bytes and the indexes of the records
	// it accepted.
	encode func([]R, WriterOptions) ([]byte, []int, []RecordError, error)
	decode func([]byte, int64) ([]R, error)
}

// rowSchema builds a schema from per-record row conversions.
func rowSchema[R, P any](name string, inst func(R) models.InstrumentID, ts func(R) int64,
	toRow func(R) (P, error), fromRow func(P) (R, error)) schema[R] {
	return schema[R]{
		name:       name,
		instrument: inst,
		ts:         ts,
		encode: func(recs []R, opts WriterOptions) ([]byte, []int, []RecordError, error) {
			rows := make([]P, 0, len(recs))
			accepted := make([]int, 0, len(recs))
			var rejected []RecordError
			for i, r := range recs {
				row, err := toRow(r)
				if err != nil {
					rejected = append(rejected, RecordError{Index: i, TsEvent: ts(r), Err: err})
					continue
				}
				rows = append(rows, row)
				accepted = append(accepted, i)
			}
			if len(rows) == 0 {
				return nil, nil, rejected, nil
			}
			data, err := encodeParquet(rows, opts)
			return data, accepted, rejected, err
		},
		decode: func(data []byte, np int64) ([]R, error) {
			rows, err := decodeParquet[P](data, np)
			if err != nil {
				return nil, err
			}
			out := make([]R, len(rows))
			for i, row := range rows {
				if out[i], err = fromRow(row); err != nil {
					return nil, fmt.Errorf("row %d: %w", i, err)
				}
			}
			return out, nil
		},
	}
}

// WriteOption overrides a tier's configured write behaviour for one call.
type WriteOption func(*writeConfig)

type writeConfig struct {
	skipDisjoint bool
	strict       bool
}

// SkipDisjointCheck disables (or re-enables) the overlap check. Overriding
// writes add a partition; queries then return both copies in merge order.
func SkipDisjointCheck(skip bool) WriteOption {
	return func(c *writeConfig) { c.skipDisjoint = skip }
}

// Strict makes any rejected record abort the whole write.
func Strict(strict bool) WriteOption {
	return func(c *writeConfig) { c.strict = strict }
}

// WriteResult describes one committed (or aborted) write.
type WriteResult struct {
	Instrument models.InstrumentID
	Range      storage.Range
	Written    int
	Bytes      int64
	Rejected   []RecordError
}

// Tier is one typed table of the catalog.
type Tier[R any] struct {
	schema   schema[R]
	store    *storage.Store
	opts     WriterOptions
	defaults writeConfig
	manifest *metadata.Generator
	metrics  *metrics.Collectors
	log      *logger.Log

	locks sync.Map // instrument -> *sync.Mutex
}

func newTier[R any](s schema[R], cfg tierConfig) *Tier[R] {
	return &Tier[R]{
		schema:   s,
		store:    cfg.store,
		opts:     cfg.writer,
		defaults: cfg.write,
		manifest: cfg.manifests[s.name],
		metrics:  cfg.metrics,
		log:      cfg.log,
	}
}

// Name returns the tier's storage name.
func (t *Tier[R]) Name() string { return t.schema.name }

func (t *Tier[R]) lock(inst models.InstrumentID) func() {
	v, _ := t.locks.LoadOrStore(inst, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Write commits records for one instrument as a single partition spanning
// their timestamps. Records that fail encoding are reported in the result
// and skipped, unless the write is strict. A write whose span overlaps a
// committed partition fails with a *RangeConflictError.
func (t *Tier[R]) Write(ctx context.Context, inst models.InstrumentID, records []R, opts ...WriteOption) (WriteResult, error) {
	start := time.Now()
	cfg := t.defaults
	for _, o := range opts {
		o(&cfg)
	}

	inst, err := models.ParseInstrumentID(inst.String())
	if err != nil {
		return WriteResult{}, err
	}
	res := WriteResult{Instrument: inst}
	if len(records) == 0 {
		return res, nil
	}

	// idx maps positions in recs back to the caller's batch.
	recs := make([]R, 0, len(records))
	idx := make([]int, 0, len(records))
	for i, r := range records {
		if got := t.schema.instrument(r); got != inst {
			res.Rejected = append(res.Rejected, RecordError{
				Index: i, TsEvent: t.schema.ts(r),
				Err: fmt.Errorf("%w: %s", ErrInstrumentMismatch, got),
			})
			continue
		}
		recs = append(recs, r)
		idx = append(idx, i)
	}
	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return t.schema.ts(recs[order[a]]) < t.schema.ts(recs[order[b]]) })
	sorted := make([]R, len(recs))
	for i, o := range order {
		sorted[i] = recs[o]
		order[i] = idx[o]
	}

	data, accepted, rejected, err := t.schema.encode(sorted, t.opts)
	for _, e := range rejected {
		e.Index = order[e.Index]
		res.Rejected = append(res.Rejected, e)
	}
	sort.Slice(res.Rejected, func(a, b int) bool { return res.Rejected[a].Index < res.Rejected[b].Index })

	stats := metrics.WriteStats{Tier: t.schema.name, Instrument: inst.String(), Rejected: len(res.Rejected)}
	t.metrics.EncodingErrors(t.schema.name, len(res.Rejected))
	if err != nil {
		return res, fmt.Errorf("%s %s: %w", t.schema.name, inst, err)
	}
	if cfg.strict && len(res.Rejected) > 0 {
		metrics.ReportWrite(t.log, stats)
		return res, fmt.Errorf("%s %s: %w: %d records: %w", t.schema.name, inst, ErrStrictWrite, len(res.Rejected), res.Rejected[0])
	}
	if data == nil {
		metrics.ReportWrite(t.log, stats)
		return res, nil
	}

	// accepted is in timestamp order.
	res.Range = storage.NewRange(t.schema.ts(sorted[accepted[0]]), t.schema.ts(sorted[accepted[len(accepted)-1]]))

	unlock := t.lock(inst)
	defer unlock()

	if !cfg.skipDisjoint {
		existing, err := t.store.ListRanges(ctx, t.schema.name, inst)
		if err != nil {
			return res, fmt.Errorf("%s %s: list partitions: %w", t.schema.name, inst, err)
		}
		for _, r := range existing {
			if r.Overlaps(res.Range) {
				t.metrics.RangeConflict(t.schema.name)
				stats.Conflicts = 1
				metrics.ReportWrite(t.log, stats)
				return res, &RangeConflictError{Tier: t.schema.name, Instrument: inst, Requested: res.Range, Existing: r}
			}
		}
	}

	if err := t.store.Put(ctx, t.schema.name, inst, res.Range, data); err != nil {
		return res, fmt.Errorf("%s %s: commit: %w", t.schema.name, inst, err)
	}
	res.Written = len(accepted)
	res.Bytes = int64(len(data))

	took := time.Since(start)
	t.metrics.WriteCommitted(t.schema.name, res.Written, len(data), took)
	stats.Records, stats.Partitions, stats.Bytes, stats.Duration = res.Written, 1, res.Bytes, took
	metrics.ReportWrite(t.log, stats)
	t.record(ctx, inst, res)
	return res, nil
}

// record adds the partition to the tier manifest. Manifest failures do
// not fail the committed write.
func (t *Tier[R]) record(ctx context.Context, inst models.InstrumentID, res WriteResult) {
	if t.manifest == nil {
		return
	}
	df := metadata.DataFile{
		Path:        storage.PartitionKey(t.schema.name, inst, res.Range),
		FileSize:    res.Bytes,
		RecordCount: int64(res.Written),
		Partition: map[string]any{
			"instrument_id": inst.String(),
			"start":         res.Range.Start,
			"end":           res.Range.End,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := t.manifest.AddFile(ctx, df); err != nil {
		t.log.WithComponent("catalog."+t.schema.name).WithError(err).Warn("failed to record partition in manifest")
	}
}

// Query returns a lazy cursor over records of every instrument matching
// pattern with timestamps in [start, end], ordered by timestamp. Pattern
// is an instrument id, optionally ending in '*' to match a prefix.
func (t *Tier[R]) Query(ctx context.Context, pattern string, start, end int64) (*Cursor[R], error) {
	insts, err := t.Instruments(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var parts []partitionRef
	for _, inst := range insts {
		ranges, err := t.store.ListRanges(ctx, t.schema.name, inst)
		if err != nil {
			return nil, fmt.Errorf("%s %s: list partitions: %w", t.schema.name, inst, err)
		}
		for _, r := range ranges {
			if r.Intersects(start, end) {
				parts = append(parts, partitionRef{inst: inst, rng: r, ordinal: len(parts)})
			}
		}
	}
	return newCursor(ctx, t, parts, start, end), nil
}

// Instruments resolves a pattern against the instruments stored in the tier.
func (t *Tier[R]) Instruments(ctx context.Context, pattern string) ([]models.InstrumentID, error) {
	prefix, wildcard, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	if !wildcard {
		inst, err := models.ParseInstrumentID(prefix)
		if err != nil {
			return nil, err
		}
		return []models.InstrumentID{inst}, nil
	}
	all, err := t.store.ListInstruments(ctx, t.schema.name)
	if err != nil {
		return nil, fmt.Errorf("%s: list instruments: %w", t.schema.name, err)
	}
	var out []models.InstrumentID
	for _, inst := range all {
		if strings.HasPrefix(inst.String(), prefix) {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Ranges lists the committed partitions of an instrument.
func (t *Tier[R]) Ranges(ctx context.Context, inst models.InstrumentID) ([]storage.Range, error) {
	return t.store.ListRanges(ctx, t.schema.name, inst)
}

func (t *Tier[R]) load(ctx context.Context, p partitionRef) ([]R, error) {
	data, err := t.store.Get(ctx, t.schema.name, p.inst, p.rng)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", t.schema.name, p.inst, p.rng, err)
	}
	recs, err := t.schema.decode(data, t.opts.np())
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", t.schema.name, p.inst, p.rng, err)
	}
	t.metrics.RecordsRead(t.schema.name, len(recs))
	return recs, nil
}

func parsePattern(pattern string) (prefix string, wildcard bool, err error) {
	p := strings.ToUpper(strings.TrimSpace(pattern))
	if p == "" {
		return "", false, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	if strings.HasSuffix(p, "*") {
		p = strings.TrimSuffix(p, "*")
		wildcard = true
	}
	if strings.Contains(p, "*") {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return p, wildcard, nil
}
