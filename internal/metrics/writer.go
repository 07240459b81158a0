package metrics

import (
	"time"

	"optioncatalog/logger"
)

// WriteStats summarises one tier write call.
type WriteStats struct {
	Tier       string
	Instrument string
	Records    int
	Partitions int
	Bytes      int64
	Rejected   int
	Conflicts  int
	Duration   time.Duration
}

// ReportWrite emits the write summary as metrics under the tier's component
// and logs it, at warn level when records were rejected.
func ReportWrite(log *logger.Log, stats WriteStats) {
	if log == nil {
		log = logger.GetLogger()
	}
	component := "catalog." + stats.Tier
	dims := logger.Fields{"tier": stats.Tier}

	EmitMetric(log, component, "records_written", stats.Records, "counter", dims)
	EmitMetric(log, component, "bytes_written", stats.Bytes, "counter", dims)
	EmitMetric(log, component, "encoding_errors", stats.Rejected, "counter", dims)
	EmitMetric(log, component, "range_conflicts", stats.Conflicts, "counter", dims)
	EmitMetric(log, component, "write_duration", stats.Duration, "duration", dims)

	entry := log.WithComponent(component).WithFields(logger.Fields{
		"instrument":  stats.Instrument,
		"records":     stats.Records,
		"partitions":  stats.Partitions,
		"bytes":       stats.Bytes,
		"rejected":    stats.Rejected,
		"conflicts":   stats.Conflicts,
		"duration_ms": float64(stats.Duration.Nanoseconds()) / 1e6,
	})

	if stats.Rejected > 0 || stats.Conflicts > 0 {
		entry.Warn("tier write completed with rejections")
		return
	}
	entry.Debug("tier write completed")
}
