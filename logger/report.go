package logger

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type componentStat struct {
	warns  int64
	errors int64
}

var (
	components sync.Map // map[string]*componentStat
	flows      sync.Map // map[string]*int64
)

func componentStats(component string) *componentStat {
	v, _ := components.LoadOrStore(component, &componentStat{})
	return v.(*componentStat)
}

func recordWarn(component string) {
	atomic.AddInt64(&componentStats(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&componentStats(component).errors, 1)
}

func recordFlow(destination string, records int) {
	v, _ := flows.LoadOrStore(destination, new(int64))
	atomic.AddInt64(v.(*int64), int64(records))
}

// ReportOptions controls the periodic runtime report.
type ReportOptions struct {
	Interval time.Duration
	// DiskPath is the filesystem whose usage is reported, usually the
	// local catalog root. Empty skips disk usage.
	DiskPath string
}

// StartReport logs runtime and catalog activity every interval until ctx is
// done, publishing the same figures to CloudWatch.
func StartReport(ctx context.Context, log *Log, opts ReportOptions) {
	if opts.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(opts.Interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log, opts)
			}
		}
	}()
}

// Snapshot returns the per component warn and error counts and the records
// logged per data flow destination.
func Snapshot() (warns, errors, flowed map[string]int64) {
	warns, errors, flowed = map[string]int64{}, map[string]int64{}, map[string]int64{}
	components.Range(func(k, v any) bool {
		cs := v.(*componentStat)
		warns[k.(string)] = atomic.LoadInt64(&cs.warns)
		errors[k.(string)] = atomic.LoadInt64(&cs.errors)
		return true
	})
	flows.Range(func(k, v any) bool {
		flowed[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	return warns, errors, flowed
}

func logReport(ctx context.Context, log *Log, opts ReportOptions) {
	cpuPercent, _ := cpu.Percent(0, false)
	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}
	var memUsedMB float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memUsedMB = float64(vm.Used) / 1024 / 1024
	}
	var diskUsedMB float64
	if opts.DiskPath != "" {
		if du, err := disk.Usage(opts.DiskPath); err == nil {
			diskUsedMB = float64(du.Used) / 1024 / 1024
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	warns, errs, flowed := Snapshot()

	log.WithComponent("report").WithFields(Fields{
		"goroutines":  runtime.NumGoroutine(),
		"heap_mb":     float64(ms.HeapAlloc) / 1024 / 1024,
		"cpu_percent": cpuPct,
		"memory_mb":   memUsedMB,
		"disk_mb":     diskUsedMB,
		"warns":       warns,
		"errors":      errs,
		"records":     flowed,
	}).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(memUsedMB)},
		{MetricName: aws.String("HeapMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(ms.HeapAlloc) / 1024 / 1024)},
	}
	if opts.DiskPath != "" {
		data = append(data, cwtypes.MetricDatum{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(diskUsedMB)})
	}

	names := make([]string, 0, len(warns))
	for name := range warns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dim := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(name)}}
		data = append(data,
			cwtypes.MetricDatum{MetricName: aws.String("Warnings"), Unit: cwtypes.StandardUnitCount, Dimensions: dim, Value: aws.Float64(float64(warns[name]))},
			cwtypes.MetricDatum{MetricName: aws.String("Errors"), Unit: cwtypes.StandardUnitCount, Dimensions: dim, Value: aws.Float64(float64(errs[name]))},
		)
	}
	for dest, n := range flowed {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("RecordsFlowed"),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{{Name: aws.String("destination"), Value: aws.String(dest)}},
			Value:      aws.Float64(float64(n)),
		})
	}

	cw.add(ctx, data...)
}
