package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "catalog.log")

	log := Logger()
	if err := log.Configure("debug", "json", path, 0); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	log.WithComponent("catalog").Info("hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, data)
	}
	if line["message"] != "hello" || line["component"] != "catalog" {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestCountersFollowComponents(t *testing.T) {
	log := Logger()
	log.SetOutput(&bytes.Buffer{})
	log.WithComponent("counter_test").Warn("w")
	log.WithComponent("counter_test").Error("e")
	LogDataFlowEntry(log.WithComponent("counter_test"), "bars", "counter_test_quotes", 3, "quote")

	warns, errs, flowed := Snapshot()
	if warns["counter_test"] < 1 || errs["counter_test"] < 1 {
		t.Fatalf("warns=%v errors=%v", warns, errs)
	}
	if flowed["counter_test_quotes"] != 3 {
		t.Fatalf("flowed = %v", flowed)
	}
}

func TestToFloat(t *testing.T) {
	if v, ok := toFloat(1500 * time.Microsecond); !ok || v != 1.5 {
		t.Fatalf("toFloat(duration) = %v, %v", v, ok)
	}
	if _, ok := toFloat("x"); ok {
		t.Fatal("string accepted")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"": "info", "report": "info", "DEBUG": "debug", " warn ": "warning"} {
		lvl, err := parseLevel(in)
		if err != nil || lvl.String() != want {
			t.Errorf("parseLevel(%q) = %v, %v", in, lvl, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMetricDatum(t *testing.T) {
	d := metricDatum("catalog.bars", "write_duration", 2.5, "duration", Fields{
		"tier":   "bars",
		"metric": "write_duration",
		"count":  3,
		"asset":  "NIFTY",
	})
	if d.Unit != cwtypes.StandardUnitMilliseconds || *d.Value != 2.5 {
		t.Fatalf("unexpected datum: %+v", d)
	}
	var names []string
	for _, dim := range d.Dimensions {
		names = append(names, *dim.Name)
	}
	if got := strings.Join(names, ","); got != "component,asset,tier" {
		t.Fatalf("dimensions = %s", got)
	}
}

func TestDashboardBody(t *testing.T) {
	body, err := dashboardBody("NS")
	if err != nil {
		t.Fatal(err)
	}
	var parsed struct {
		Widgets []struct {
			Properties struct {
				Metrics [][]string `json:"metrics"`
				Title   string     `json:"title"`
			} `json:"properties"`
		} `json:"widgets"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Widgets) != 4 || parsed.Widgets[1].Properties.Metrics[0][0] != "NS" {
		t.Fatalf("unexpected dashboard: %s", body)
	}
}

func TestPublisherWithoutClient(t *testing.T) {
	p := &publisher{namespace: "x"}
	p.add(context.Background(), metricDatum("c", "m", 1, "", nil))
	if len(p.pending) != 0 {
		t.Fatal("datums queued without a client")
	}
	p.flush(context.Background(), true)
}
