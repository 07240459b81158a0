package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"optioncatalog/internal/catalog"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/models"
	"optioncatalog/logger"
)

// Summary totals one synthesis run.
type Summary struct {
	Instruments int
	Quotes      int
	Rejected    int
	Duration    time.Duration
}

// Synthesizer fills the quote tier from the bar tier, one write per
// instrument, instruments in parallel.
type Synthesizer struct {
	cat     *catalog.Catalog
	policy  Policy
	workers int
	metrics *metrics.Collectors
	log     *logger.Entry
}

// NewSynthesizer returns a synthesizer using at most workers goroutines.
func NewSynthesizer(cat *catalog.Catalog, policy Policy, workers int, m *metrics.Collectors) *Synthesizer {
	if workers < 1 {
		workers = 1
	}
	return &Synthesizer{
		cat:     cat,
		policy:  policy,
		workers: workers,
		metrics: m,
		log:     logger.GetLogger().WithComponent("quotes"),
	}
}

// Run derives quotes for every instrument matching pattern from its bars in
// [start, end]. The first failing instrument cancels the rest.
func (s *Synthesizer) Run(ctx context.Context, pattern string, start, end int64, opts ...catalog.WriteOption) (Summary, error) {
	began := time.Now()
	insts, err := s.cat.Bars.Instruments(ctx, pattern)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, inst := range insts {
		inst := inst
		g.Go(func() error {
			n, rejected, err := s.instrument(gctx, inst, start, end, opts...)
			if err != nil {
				return err
			}
			mu.Lock()
			if n > 0 {
				sum.Instruments++
			}
			sum.Quotes += n
			sum.Rejected += rejected
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	sum.Duration = time.Since(began)

	entry := s.log.WithFields(logger.Fields{
		"pattern":     pattern,
		"policy":      s.policy.String(),
		"instruments": sum.Instruments,
		"quotes":      sum.Quotes,
		"rejected":    sum.Rejected,
	})
	if err != nil {
		entry.WithError(err).Error("quote synthesis failed")
		return sum, err
	}
	logger.LogPerformanceEntry(entry, "quotes", "synthesize", sum.Duration, nil)
	return sum, nil
}

func (s *Synthesizer) instrument(ctx context.Context, inst models.InstrumentID, start, end int64, opts ...catalog.WriteOption) (int, int, error) {
	cur, err := s.cat.Bars.Query(ctx, inst.String(), start, end)
	if err != nil {
		return 0, 0, err
	}
	bars, err := catalog.Collect(cur)
	if err != nil {
		return 0, 0, fmt.Errorf("read bars %s: %w", inst, err)
	}
	if len(bars) == 0 {
		return 0, 0, nil
	}

	contract, err := s.cat.Contracts.GetCached(ctx, inst)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.log.WithFields(logger.Fields{"instrument": inst.String()}).Debug("no contract metadata, quoting at close precision")
		contract = models.Contract{Instrument: inst}
	case err != nil:
		return 0, 0, err
	}

	quotes, err := Derive(bars, contract, s.policy)
	if err != nil {
		return 0, 0, fmt.Errorf("derive %s: %w", inst, err)
	}
	res, err := s.cat.Quotes.Write(ctx, inst, quotes, opts...)
	if err != nil {
		return 0, len(res.Rejected), err
	}
	s.metrics.QuotesSynthesized(res.Written)
	logger.LogDataFlowEntry(s.log.WithFields(logger.Fields{"instrument": inst.String()}),
		catalog.TierBars, catalog.TierQuotes, res.Written, "quote")
	return res.Written, len(res.Rejected), nil
}
