package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"optioncatalog/config"
	"optioncatalog/internal/calendar"
	"optioncatalog/internal/catalog"
	"optioncatalog/internal/enrich"
	"optioncatalog/internal/expiry"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/models"
	"optioncatalog/internal/quotes"
	"optioncatalog/internal/symbols"
	"optioncatalog/logger"
)

// window holds the shared -pattern/-start/-end flags.
type window struct {
	pattern    string
	start, end string
}

func (w *window) register(fs *flag.FlagSet) {
	fs.StringVar(&w.pattern, "pattern", "*", "Instrument id, optionally ending in '*'")
	fs.StringVar(&w.start, "start", "", "Range start, RFC3339 or YYYY-MM-DD (default unbounded)")
	fs.StringVar(&w.end, "end", "", "Range end, RFC3339 or YYYY-MM-DD (default unbounded)")
}

func (w *window) bounds() (int64, int64, error) {
	start, err := parseBound(w.start, math.MinInt64)
	if err != nil {
		return 0, 0, fmt.Errorf("-start: %w", err)
	}
	end, err := parseBound(w.end, math.MaxInt64)
	if err != nil {
		return 0, 0, fmt.Errorf("-end: %w", err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("-end before -start")
	}
	return start, end, nil
}

func parseBound(s string, unbounded int64) (int64, error) {
	if s == "" {
		return unbounded, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixNano(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, err
	}
	return t.UnixNano(), nil
}

// buildEngine assembles the trading calendar and expiry engine from the
// calendar section.
func buildEngine(cfg config.CalendarConfig) (*expiry.Engine, error) {
	holidays := calendar.NewHolidaySet()
	if cfg.BuiltinNSE {
		nse := calendar.NSEHolidays()
		for _, d := range nse.Dates() {
			reason, _ := nse.Reason(d)
			holidays.Add(d, reason)
		}
	}
	if cfg.HolidaysFile != "" {
		extra, err := calendar.LoadHolidays(cfg.HolidaysFile)
		if err != nil {
			return nil, err
		}
		for _, d := range extra.Dates() {
			reason, _ := extra.Reason(d)
			holidays.Add(d, reason)
		}
	}

	var opts []calendar.Option
	if len(cfg.Weekend) > 0 {
		days, err := calendar.ParseWeekdays(cfg.Weekend)
		if err != nil {
			return nil, err
		}
		opts = append(opts, calendar.WithWeekend(days...))
	}
	cal, err := calendar.New(holidays, opts...)
	if err != nil {
		return nil, err
	}

	weekday := time.Thursday
	if cfg.ExpiryWeekday != "" {
		if weekday, err = calendar.ParseWeekday(cfg.ExpiryWeekday); err != nil {
			return nil, err
		}
	}
	return expiry.New(cal, weekday)
}

// runContracts seeds index and continuous future metadata for every
// underlying of a universe file. Instruments already present are skipped.
func runContracts(ctx context.Context, cat *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("contracts", flag.ContinueOnError)
	universePath := fs.String("universe", "config/universe.yml", "Path to universe file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := config.LoadUniverse(*universePath)
	if err != nil {
		return err
	}

	log := logger.GetLogger().WithComponent("contracts")
	written := 0
	for _, und := range u.Underlyings {
		var batch []models.Contract
		if symbols.IsIndex(und.Symbol) {
			idx, err := symbols.NewIndex(und.Symbol, und.Venue)
			if err != nil {
				return err
			}
			batch = append(batch, idx)
		}
		fut, err := symbols.NewContinuousFuture(und.Symbol+"-I", und.Symbol, und.Venue)
		if err != nil {
			return err
		}
		batch = append(batch, fut)

		for _, c := range batch {
			err := cat.Contracts.Put(ctx, c)
			switch {
			case errors.Is(err, catalog.ErrRangeConflict):
				log.WithFields(logger.Fields{"instrument": c.Instrument.String()}).Debug("contract already present")
			case err != nil:
				return err
			default:
				written++
			}
		}
	}
	log.WithFields(logger.Fields{"underlyings": len(u.Underlyings), "written": written}).Info("contracts seeded")
	return cat.Manifest(catalog.TierContracts).WriteCatalogEntry(ctx, "catalog")
}

func runSynthesize(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, m *metrics.Collectors, args []string) error {
	fs := flag.NewFlagSet("synthesize", flag.ContinueOnError)
	var w window
	w.register(fs)
	override := fs.Bool("override", false, "Skip the overlap check on the quote tier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, end, err := w.bounds()
	if err != nil {
		return err
	}
	policy, err := quotes.PolicyFromConfig(cfg.Synthesis)
	if err != nil {
		return err
	}

	var opts []catalog.WriteOption
	if *override {
		opts = append(opts, catalog.SkipDisjointCheck(true))
	}
	sum, err := quotes.NewSynthesizer(cat, policy, cfg.Synthesis.Workers, m).Run(ctx, w.pattern, start, end, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("synthesized %d quotes for %d instruments (%d rejected) in %s\n",
		sum.Quotes, sum.Instruments, sum.Rejected, sum.Duration.Round(time.Millisecond))
	return cat.Manifest(catalog.TierQuotes).WriteCatalogEntry(ctx, "catalog")
}

// enrichedLine is the JSON shape of one enriched row.
type enrichedLine struct {
	Instrument string  `json:"instrument_id"`
	TsEvent    int64   `json:"ts_event"`
	Close      string  `json:"close,omitempty"`
	Bid        string  `json:"bid_price,omitempty"`
	Ask        string  `json:"ask_price,omitempty"`
	OI         *int64  `json:"oi,omitempty"`
	COI        *int64  `json:"coi,omitempty"`
	DTE        *int    `json:"dte,omitempty"`
	Bucket     string  `json:"expiry_bucket,omitempty"`
	Spot       string  `json:"spot,omitempty"`
	Moneyness  string  `json:"moneyness,omitempty"`
	Underlying *string `json:"underlying,omitempty"`
}

func toLine(r enrich.Enriched) enrichedLine {
	line := enrichedLine{Instrument: r.Instrument.String(), TsEvent: r.TsEvent}
	if r.Bar != nil {
		line.Close = r.Bar.Close.String()
	}
	if r.Quote != nil {
		line.Bid, line.Ask = r.Quote.Bid.String(), r.Quote.Ask.String()
	}
	if r.OI != nil {
		oi, coi := r.OI.OI, r.OI.COI
		line.OI, line.COI = &oi, &coi
	}
	if r.HasExpiry {
		dte := r.DTE
		line.DTE, line.Bucket = &dte, r.Bucket.Code()
	}
	if r.Contract != nil && r.Contract.Kind == models.KindOption {
		line.Moneyness = r.Moneyness.String()
		u := r.Contract.Underlying
		line.Underlying = &u
	}
	if r.Spot != nil {
		line.Spot = r.Spot.String()
	}
	return line
}

func runEnrich(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, m *metrics.Collectors, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	var w window
	w.register(fs)
	asOfFlag := fs.String("asof", "", "Date DTE is measured from, YYYY-MM-DD (default each row's own date)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, end, err := w.bounds()
	if err != nil {
		return err
	}
	var asOf time.Time
	if *asOfFlag != "" {
		if asOf, err = time.Parse(time.DateOnly, *asOfFlag); err != nil {
			return fmt.Errorf("-asof: %w", err)
		}
	}

	engine, err := buildEngine(cfg.Calendar)
	if err != nil {
		return err
	}
	e := enrich.New(cat, engine, enrich.WithSpotLookback(cfg.Enrich.SpotLookback), enrich.WithMetrics(m))
	rows, err := e.Query(ctx, w.pattern, start, end, asOf)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, r := range rows {
		if err := enc.Encode(toLine(r)); err != nil {
			return err
		}
	}
	return nil
}

// expiryLine is the JSON shape of one month of the expiry schedule.
type expiryLine struct {
	Month       string   `json:"month"`
	Monthly     string   `json:"monthly_expiry"`
	Weekly      []string `json:"weekly_expiries"`
	TradingDays int      `json:"trading_days"`
	DTE         *int     `json:"dte,omitempty"`
	Bucket      string   `json:"expiry_bucket,omitempty"`
	Horizon     string   `json:"horizon,omitempty"`
}

// runExpiries prints the holiday adjusted expiry schedule of a year, with
// DTE and bucket of each monthly expiry when -asof is given.
func runExpiries(cfg *config.Config, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("expiries", flag.ContinueOnError)
	year := fs.Int("year", time.Now().UTC().Year(), "Calendar year")
	asOfFlag := fs.String("asof", "", "Measure DTE from this date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	engine, err := buildEngine(cfg.Calendar)
	if err != nil {
		return err
	}
	var asOf time.Time
	if *asOfFlag != "" {
		if asOf, err = time.Parse(time.DateOnly, *asOfFlag); err != nil {
			return fmt.Errorf("-asof: %w", err)
		}
	}

	monthly, err := engine.MonthlyExpiries(*year)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for m := time.January; m <= time.December; m++ {
		weekly, err := engine.WeeklyExpiries(*year, m)
		if err != nil {
			return err
		}
		line := expiryLine{
			Month:       fmt.Sprintf("%04d-%02d", *year, int(m)),
			Monthly:     monthly[m].Format(time.DateOnly),
			TradingDays: len(engine.Calendar().TradingDaysInMonth(*year, m)),
		}
		for _, w := range weekly {
			line.Weekly = append(line.Weekly, w.Format(time.DateOnly))
		}
		if !asOf.IsZero() {
			dte := engine.DTE(monthly[m], asOf)
			b := expiry.ClassifyBucket(dte)
			line.DTE, line.Bucket, line.Horizon = &dte, b.Code(), b.Description()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// runValidate checks stored bars for data quality issues without touching
// them. Each offending bar is printed as one JSON line.
func runValidate(ctx context.Context, cat *catalog.Catalog, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var w window
	w.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, end, err := w.bounds()
	if err != nil {
		return err
	}
	cur, err := cat.Bars.Query(ctx, w.pattern, start, end)
	if err != nil {
		return err
	}
	defer cur.Close()

	type issueLine struct {
		Instrument string   `json:"instrument_id"`
		TsEvent    int64    `json:"ts_event"`
		Issues     []string `json:"issues"`
	}
	enc := json.NewEncoder(out)
	checked, flagged := 0, 0
	for cur.Next() {
		b := cur.Record()
		checked++
		issues := models.ValidateBar(b)
		if len(issues) == 0 {
			continue
		}
		flagged++
		line := issueLine{Instrument: b.Instrument.String(), TsEvent: b.TsEvent}
		for _, i := range issues {
			line.Issues = append(line.Issues, i.String())
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	entry := logger.GetLogger().WithComponent("validate").WithFields(logger.Fields{"checked": checked, "flagged": flagged})
	if flagged > 0 {
		entry.Warn("bars failed validation")
	} else {
		entry.Info("bars validated")
	}
	return nil
}
