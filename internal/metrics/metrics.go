// Package metrics registers the catalog's Prometheus collectors:
//
//	#catalog_records_written_total{tier}
//	#catalog_partitions_written_total{tier}
//	#catalog_bytes_written_total{tier}
//	#catalog_range_conflicts_total{tier}
//	#catalog_encoding_errors_total{tier}
//	#catalog_records_read_total{tier}
//	#catalog_write_duration_seconds{tier}
//	#catalog_contract_cache_lookups_total{result}
//	#catalog_contract_cache_reloads_total
//	#catalog_quotes_synthesized_total
//	#catalog_enrich_unknown_total{field}
//	#go_* and process_* system metrics
//
// and can expose them over HTTP with the Prometheus handler.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"optioncatalog/logger"
)

// Collectors groups every catalog metric. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	registry *prometheus.Registry

	recordsWritten    *prometheus.CounterVec
	partitionsWritten *prometheus.CounterVec
	bytesWritten      *prometheus.CounterVec
	rangeConflicts    *prometheus.CounterVec
	encodingErrors    *prometheus.CounterVec
	recordsRead       *prometheus.CounterVec
	writeDuration     *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	cacheReloads      prometheus.Counter
	quotesSynthesized prometheus.Counter
	enrichUnknown     *prometheus.CounterVec
}

// New creates collectors on their own registry.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_records_written_total",
			Help: "Records committed to a tier",
		}, []string{"tier"}),
		partitionsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_partitions_written_total",
			Help: "Partitions committed to a tier",
		}, []string{"tier"}),
		bytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_bytes_written_total",
			Help: "Encoded partition bytes committed to a tier",
		}, []string{"tier"}),
		rangeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_range_conflicts_total",
			Help: "Writes rejected because they overlap a committed range",
		}, []string{"tier"}),
		encodingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_encoding_errors_total",
			Help: "Records rejected by the fixed-point codec",
		}, []string{"tier"}),
		recordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_records_read_total",
			Help: "Records yielded by tier queries",
		}, []string{"tier"}),
		writeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_write_duration_seconds",
			Help:    "Time to encode and commit one write",
			Buckets: prometheus.DefBuckets,
		}, []string{"tier"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_contract_cache_lookups_total",
			Help: "Contract cache lookups by result",
		}, []string{"result"}),
		cacheReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_contract_cache_reloads_total",
			Help: "Contract cache rebuilds",
		}),
		quotesSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_quotes_synthesized_total",
			Help: "Quotes derived from bars",
		}),
		enrichUnknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_enrich_unknown_total",
			Help: "Enriched rows where a computed field could not be resolved",
		}, []string{"field"}),
	}
	c.registry.MustRegister(
		c.recordsWritten, c.partitionsWritten, c.bytesWritten, c.rangeConflicts,
		c.encodingErrors, c.recordsRead, c.writeDuration, c.cacheLookups,
		c.cacheReloads, c.quotesSynthesized, c.enrichUnknown,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Serve exposes /metrics on addr until ctx is done.
func (c *Collectors) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.GetLogger().WithComponent("metrics").WithFields(logger.Fields{"addr": addr}).Info("serving prometheus metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// WriteCommitted records one committed partition.
func (c *Collectors) WriteCommitted(tier string, records, bytes int, took time.Duration) {
	if c == nil {
		return
	}
	c.recordsWritten.WithLabelValues(tier).Add(float64(records))
	c.partitionsWritten.WithLabelValues(tier).Inc()
	c.bytesWritten.WithLabelValues(tier).Add(float64(bytes))
	c.writeDuration.WithLabelValues(tier).Observe(took.Seconds())
}

func (c *Collectors) RangeConflict(tier string) {
	if c == nil {
		return
	}
	c.rangeConflicts.WithLabelValues(tier).Inc()
}

func (c *Collectors) EncodingErrors(tier string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.encodingErrors.WithLabelValues(tier).Add(float64(n))
}

func (c *Collectors) RecordsRead(tier string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.recordsRead.WithLabelValues(tier).Add(float64(n))
}

// CacheLookup counts a contract cache hit or miss.
func (c *Collectors) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func (c *Collectors) CacheReload() {
	if c == nil {
		return
	}
	c.cacheReloads.Inc()
}

func (c *Collectors) QuotesSynthesized(n int) {
	if c == nil {
		return
	}
	c.quotesSynthesized.Add(float64(n))
}

// EnrichUnknown counts a computed field left unresolved, e.g. moneyness.
func (c *Collectors) EnrichUnknown(field string) {
	if c == nil {
		return
	}
	c.enrichUnknown.WithLabelValues(field).Inc()
}
