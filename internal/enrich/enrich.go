// Package enrich adds computed fields to joined catalog rows: days to
// expiry, expiry bucket and moneyness.
package enrich

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"optioncatalog/internal/calendar"
	"optioncatalog/internal/catalog"
	"optioncatalog/internal/expiry"
	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/models"
	"optioncatalog/logger"
)

// Enriched is a row plus its computed fields. DTE and Bucket are only set
// when HasExpiry is true; Spot is nil when no underlying quote was found.
type Enriched struct {
	Row
	HasExpiry bool
	DTE       int
	Bucket    expiry.Bucket
	Spot      *fixedpoint.Value
	Moneyness Moneyness
}

// Enricher resolves computed fields against one catalog.
type Enricher struct {
	cat      *catalog.Catalog
	engine   *expiry.Engine
	lookback time.Duration
	metrics  *metrics.Collectors
	log      *logger.Entry
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithSpotLookback bounds how old a spot quote may be. Zero is unbounded.
func WithSpotLookback(d time.Duration) Option {
	return func(e *Enricher) { e.lookback = d }
}

// WithMetrics counts unresolved fields.
func WithMetrics(m *metrics.Collectors) Option {
	return func(e *Enricher) { e.metrics = m }
}

func New(cat *catalog.Catalog, engine *expiry.Engine, opts ...Option) *Enricher {
	e := &Enricher{cat: cat, engine: engine, log: logger.GetLogger().WithComponent("enrich")}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Query joins and enriches in one call.
func (e *Enricher) Query(ctx context.Context, pattern string, start, end int64, asOf time.Time) ([]Enriched, error) {
	rows, err := Join(ctx, e.cat, pattern, start, end)
	if err != nil {
		return nil, err
	}
	return e.Enrich(ctx, rows, asOf)
}

// Enrich computes DTE from asOf, or from each row's own trading date when
// asOf is zero. Fields that cannot be resolved are left unknown; only
// storage failures abort.
func (e *Enricher) Enrich(ctx context.Context, rows []Row, asOf time.Time) ([]Enriched, error) {
	spots, err := e.loadSpots(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]Enriched, len(rows))
	var unknown int
	for i, row := range rows {
		en := Enriched{Row: row}
		c := row.Contract
		if c == nil {
			e.metrics.EnrichUnknown("contract")
			unknown++
			out[i] = en
			continue
		}

		if c.Kind == models.KindOption || c.Kind == models.KindFuture {
			day := asOf
			if day.IsZero() {
				day = calendar.FromUnixNano(row.TsEvent)
			}
			en.HasExpiry = true
			en.DTE = e.engine.DTE(calendar.FromUnixNano(c.ExpirationNs), day)
			en.Bucket = expiry.ClassifyBucket(en.DTE)
		}

		if c.Kind == models.KindOption {
			if spot, ok := spots.at(c, row.TsEvent, e.lookback); ok {
				en.Spot = &spot
				en.Moneyness = Classify(c.Strike, spot, c.OptionKind)
			}
			if en.Moneyness == Unknown {
				e.metrics.EnrichUnknown("moneyness")
				unknown++
			}
		}
		out[i] = en
	}

	e.log.WithFields(logger.Fields{"rows": len(rows), "unknown_fields": unknown}).Debug("rows enriched")
	return out, nil
}

// spotBook holds underlying quotes in timestamp order per instrument.
type spotBook map[models.InstrumentID][]models.Quote

// loadSpots reads, once per underlying, the quotes that can serve as spot
// for the option rows.
func (e *Enricher) loadSpots(ctx context.Context, rows []Row) (spotBook, error) {
	type span struct{ lo, hi int64 }
	need := make(map[models.InstrumentID]*span)
	for _, row := range rows {
		c := row.Contract
		if c == nil || c.Kind != models.KindOption {
			continue
		}
		u, err := c.UnderlyingID()
		if err != nil {
			continue
		}
		s, ok := need[u]
		if !ok {
			need[u] = &span{lo: row.TsEvent, hi: row.TsEvent}
			continue
		}
		if row.TsEvent < s.lo {
			s.lo = row.TsEvent
		}
		if row.TsEvent > s.hi {
			s.hi = row.TsEvent
		}
	}

	book := make(spotBook, len(need))
	for u, s := range need {
		lo := int64(math.MinInt64)
		if e.lookback > 0 {
			lo = s.lo - e.lookback.Nanoseconds()
		}
		quotes, err := collect(ctx, e.cat.Quotes, u.String(), lo, s.hi)
		if err != nil {
			return nil, err
		}
		book[u] = quotes
	}
	return book, nil
}

// at returns the mid of the latest underlying quote at or before ts.
func (b spotBook) at(c *models.Contract, ts int64, lookback time.Duration) (fixedpoint.Value, bool) {
	u, err := c.UnderlyingID()
	if err != nil {
		return fixedpoint.Value{}, false
	}
	q, ok := latest(b[u], ts, lookback)
	if !ok {
		return fixedpoint.Value{}, false
	}
	mid, err := q.Mid()
	if err != nil {
		return fixedpoint.Value{}, false
	}
	return mid, true
}

func latest(quotes []models.Quote, ts int64, lookback time.Duration) (models.Quote, bool) {
	i := sort.Search(len(quotes), func(i int) bool { return quotes[i].TsEvent > ts })
	if i == 0 {
		return models.Quote{}, false
	}
	q := quotes[i-1]
	if lookback > 0 && ts-q.TsEvent > lookback.Nanoseconds() {
		return models.Quote{}, false
	}
	return q, true
}

// Underlying resolves the metadata of an instrument's underlying. A
// reference to an instrument absent from the metadata tier is ErrNotFound.
func (e *Enricher) Underlying(ctx context.Context, inst models.InstrumentID) (models.Contract, error) {
	c, err := e.cat.Contracts.GetCached(ctx, inst)
	if err != nil {
		return models.Contract{}, err
	}
	u, err := c.UnderlyingID()
	if err != nil {
		return models.Contract{}, errors.Join(catalog.ErrNotFound, err)
	}
	return e.cat.Contracts.GetCached(ctx, u)
}
