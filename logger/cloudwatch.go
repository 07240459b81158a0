package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// cwBatch is the number of queued datums that triggers a PutMetricData.
const cwBatch = 20

type publisher struct {
	mu        sync.Mutex
	client    *cloudwatch.Client
	namespace string
	pending   []cwtypes.MetricDatum
}

var cw = &publisher{namespace: "OptionCatalog"}

// InitCloudWatch enables metric publishing to namespace and creates the
// catalog dashboard. An empty region falls back to AWS_REGION.
func InitCloudWatch(ctx context.Context, region, namespace, dashboard string) error {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	cw.mu.Lock()
	cw.client = cloudwatch.NewFromConfig(awsCfg)
	if namespace != "" {
		cw.namespace = namespace
	}
	ns := cw.namespace
	cw.mu.Unlock()

	GetLogger().WithComponent("cloudwatch").WithFields(Fields{"region": region, "namespace": ns}).Info("initialized CloudWatch client")
	if dashboard == "" {
		dashboard = ns
	}
	return putDashboard(ctx, dashboard, ns)
}

// FlushCloudWatch publishes whatever is still queued.
func FlushCloudWatch(ctx context.Context) {
	cw.flush(ctx, true)
}

func (p *publisher) add(ctx context.Context, data ...cwtypes.MetricDatum) {
	p.mu.Lock()
	if p.client == nil {
		p.mu.Unlock()
		return
	}
	p.pending = append(p.pending, data...)
	p.mu.Unlock()
	p.flush(ctx, false)
}

func (p *publisher) flush(ctx context.Context, all bool) {
	for {
		p.mu.Lock()
		if p.client == nil || len(p.pending) == 0 || (!all && len(p.pending) < cwBatch) {
			p.mu.Unlock()
			return
		}
		n := min(len(p.pending), cwBatch)
		batch := p.pending[:n:n]
		p.pending = p.pending[n:]
		client, ns := p.client, p.namespace
		p.mu.Unlock()

		if _, err := client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(ns),
			MetricData: batch,
		}); err != nil {
			GetLogger().WithComponent("cloudwatch").WithError(err).Warn("failed to publish CloudWatch metrics")
			return
		}
	}
}

// metricDatum converts a logged metric. String fields other than the
// bookkeeping keys become dimensions, sorted by name.
func metricDatum(component, metric string, value float64, metricType string, fields Fields) cwtypes.MetricDatum {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		switch k {
		case "metric", "metric_type", "value", "component":
			continue
		}
		if _, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	dims := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(component)}}
	for _, k := range keys {
		dims = append(dims, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(fields[k].(string))})
	}
	unit := cwtypes.StandardUnitCount
	if metricType == "duration" {
		unit = cwtypes.StandardUnitMilliseconds
	}
	return cwtypes.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: dims,
		Unit:       unit,
		Value:      aws.Float64(value),
	}
}

type widget struct {
	Type       string        `json:"type"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Properties widgetMetrics `json:"properties"`
}

type widgetMetrics struct {
	Metrics [][]string `json:"metrics"`
	Period  int        `json:"period"`
	Stat    string     `json:"stat"`
	Title   string     `json:"title"`
}

func dashboardBody(namespace string) ([]byte, error) {
	panel := func(title, stat string, names ...string) widget {
		m := make([][]string, len(names))
		for i, n := range names {
			m[i] = []string{namespace, n}
		}
		return widget{Type: "metric", Width: 12, Height: 6, Properties: widgetMetrics{Metrics: m, Period: 60, Stat: stat, Title: title}}
	}
	return json.Marshal(map[string][]widget{"widgets": {
		panel("Runtime", "Average", "CPUPercent", "MemoryMB", "HeapMB"),
		panel("Tier writes", "Sum", "records_written", "encoding_errors", "range_conflicts"),
		panel("Write latency", "Average", "write_duration"),
		panel("Synthesis", "Sum", "RecordsFlowed"),
	}})
}

func putDashboard(ctx context.Context, name, namespace string) error {
	body, err := dashboardBody(namespace)
	if err != nil {
		return err
	}
	cw.mu.Lock()
	client := cw.client
	cw.mu.Unlock()
	if _, err := client.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(name),
		DashboardBody: aws.String(string(body)),
	}); err != nil {
		return fmt.Errorf("put dashboard %s: %w", name, err)
	}
	return nil
}
