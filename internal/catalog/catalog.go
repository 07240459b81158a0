package catalog

import (
	"context"
	"fmt"

	"optioncatalog/config"
	"optioncatalog/internal/metadata"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/models"
	"optioncatalog/internal/storage"
	"optioncatalog/logger"
)

// Catalog groups the four tiers over one store.
type Catalog struct {
	store *storage.Store

	Bars         *Tier[models.Bar]
	Quotes       *Tier[models.Quote]
	Contracts    *ContractTier
	OpenInterest *Tier[models.OpenInterest]

	manifests map[string]*metadata.Generator
}

type tierConfig struct {
	store     *storage.Store
	writer    WriterOptions
	write     writeConfig
	manifests map[string]*metadata.Generator
	metrics   *metrics.Collectors
	log       *logger.Log
}

// Option configures New.
type Option func(*tierConfig)

// WithWriter sets the parquet encoding options.
func WithWriter(opts WriterOptions) Option {
	return func(c *tierConfig) { c.writer = opts }
}

// WithWriteDefaults sets the default strictness and overlap check of every
// tier. Per-call WriteOptions still override them.
func WithWriteDefaults(strict, skipDisjoint bool) Option {
	return func(c *tierConfig) { c.write = writeConfig{strict: strict, skipDisjoint: skipDisjoint} }
}

// WithMetrics records tier activity on the given collectors.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *tierConfig) { c.metrics = m }
}

// WithLogger replaces the global logger.
func WithLogger(l *logger.Log) Option {
	return func(c *tierConfig) { c.log = l }
}

// WithManifests keeps an Iceberg-style manifest per tier next to the data.
func WithManifests() Option {
	return func(c *tierConfig) { c.manifests = map[string]*metadata.Generator{} }
}

// FromConfig maps the writer section of the application config.
func FromConfig(w config.WriterConfig) Option {
	return func(c *tierConfig) {
		c.writer = WriterOptions{Compression: w.Compression, RowGroupSize: w.RowGroupSize, Parallelism: w.Parallelism}
		c.write = writeConfig{strict: w.Strict, skipDisjoint: w.SkipDisjointCheck}
	}
}

// New opens a catalog over store.
func New(ctx context.Context, store *storage.Store, opts ...Option) (*Catalog, error) {
	cfg := tierConfig{store: store, writer: WriterOptions{Compression: "snappy"}}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.GetLogger()
	}
	if cfg.manifests != nil {
		for _, name := range []string{TierBars, TierQuotes, TierContracts, TierOpenInterest} {
			g, err := metadata.NewGenerator(ctx, store.Blob(), name)
			if err != nil {
				return nil, fmt.Errorf("open %s manifest: %w", name, err)
			}
			cfg.manifests[name] = g
		}
	}

	c := &Catalog{store: store, manifests: cfg.manifests}
	c.Bars = newTier(rowSchema(TierBars,
		func(b models.Bar) models.InstrumentID { return b.Instrument },
		func(b models.Bar) int64 { return b.TsEvent },
		barToRow, rowToBar), cfg)
	c.Quotes = newTier(rowSchema(TierQuotes,
		func(q models.Quote) models.InstrumentID { return q.Instrument },
		func(q models.Quote) int64 { return q.TsEvent },
		quoteToRow, rowToQuote), cfg)
	c.OpenInterest = newTier(rowSchema(TierOpenInterest,
		func(o models.OpenInterest) models.InstrumentID { return o.Instrument },
		func(o models.OpenInterest) int64 { return o.TsEvent },
		oiToRow, rowToOI), cfg)
	c.Contracts = newContractTier(cfg)

	cfg.log.WithComponent("catalog").WithFields(logger.Fields{
		"compression": cfg.writer.Compression,
		"strict":      cfg.write.strict,
		"manifests":   cfg.manifests != nil,
	}).Info("catalog opened")
	return c, nil
}

// Store returns the underlying partition store.
func (c *Catalog) Store() *storage.Store { return c.store }

// Manifest returns the manifest generator of a tier, or nil when
// manifests are disabled.
func (c *Catalog) Manifest(tier string) *metadata.Generator { return c.manifests[tier] }
