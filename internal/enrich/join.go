package enrich

import (
	"context"
	"errors"
	"fmt"

	"optioncatalog/internal/catalog"
	"optioncatalog/internal/models"
)

// Row is one bar joined with the quote and open interest observed at the
// same (instrument, ts_event) and the instrument's metadata. Missing sides
// are nil.
type Row struct {
	Instrument models.InstrumentID
	TsEvent    int64
	Bar        *models.Bar
	Quote      *models.Quote
	OI         *models.OpenInterest
	Contract   *models.Contract
}

type joinKey struct {
	inst models.InstrumentID
	ts   int64
}

// Join reads bars matching pattern in [start, end] and attaches quotes and
// open interest by (instrument, ts_event). Metadata comes from the contract
// cache and is attached to every row of its instrument.
func Join(ctx context.Context, cat *catalog.Catalog, pattern string, start, end int64) ([]Row, error) {
	bars, err := collect(ctx, cat.Bars, pattern, start, end)
	if err != nil {
		return nil, fmt.Errorf("join bars: %w", err)
	}
	quotes, err := collect(ctx, cat.Quotes, pattern, start, end)
	if err != nil {
		return nil, fmt.Errorf("join quotes: %w", err)
	}
	ois, err := collect(ctx, cat.OpenInterest, pattern, start, end)
	if err != nil {
		return nil, fmt.Errorf("join open interest: %w", err)
	}

	// Later records win on duplicate keys, matching merge order.
	qIdx := make(map[joinKey]int, len(quotes))
	for i, q := range quotes {
		qIdx[joinKey{q.Instrument, q.TsEvent}] = i
	}
	oiIdx := make(map[joinKey]int, len(ois))
	for i, o := range ois {
		oiIdx[joinKey{o.Instrument, o.TsEvent}] = i
	}
	contracts := make(map[models.InstrumentID]*models.Contract)

	rows := make([]Row, len(bars))
	for i := range bars {
		b := &bars[i]
		row := Row{Instrument: b.Instrument, TsEvent: b.TsEvent, Bar: b}
		k := joinKey{b.Instrument, b.TsEvent}
		if j, ok := qIdx[k]; ok {
			row.Quote = &quotes[j]
		}
		if j, ok := oiIdx[k]; ok {
			row.OI = &ois[j]
		}

		c, seen := contracts[b.Instrument]
		if !seen {
			got, err := cat.Contracts.GetCached(ctx, b.Instrument)
			switch {
			case err == nil:
				c = &got
			case !errors.Is(err, catalog.ErrNotFound):
				return nil, err
			}
			contracts[b.Instrument] = c
		}
		row.Contract = c
		rows[i] = row
	}
	return rows, nil
}

func collect[R any](ctx context.Context, t *catalog.Tier[R], pattern string, start, end int64) ([]R, error) {
	cur, err := t.Query(ctx, pattern, start, end)
	if err != nil {
		return nil, err
	}
	return catalog.Collect(cur)
}
