package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig creates a configuration file required for LoadConfig and
// returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

const minimalConfig = `catalog:
  name: "TestCatalog"
  version: "1.0"
storage:
  backend: local
  local:
    path: /tmp/catalog
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Catalog.Name != "TestCatalog" {
		t.Errorf("unexpected name: %s", cfg.Catalog.Name)
	}
	if cfg.Synthesis.Policy != "zero" || cfg.Synthesis.Workers != 4 {
		t.Errorf("unexpected synthesis defaults: %+v", cfg.Synthesis)
	}
	if cfg.Calendar.ExpiryWeekday != "thursday" || !cfg.Calendar.BuiltinNSE {
		t.Errorf("unexpected calendar defaults: %+v", cfg.Calendar)
	}
	if cfg.Writer.Compression != "snappy" {
		t.Errorf("unexpected compression: %s", cfg.Writer.Compression)
	}
}

func TestLoadConfigDurations(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, minimalConfig+`enrich:
  spot_lookback: 15m
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Enrich.SpotLookback != 15*time.Minute {
		t.Errorf("unexpected lookback: %s", cfg.Enrich.SpotLookback)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_PATH", "/data/catalog")
	cfg, err := LoadConfig(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Local.Path != "/data/catalog" {
		t.Errorf("unexpected path: %s", cfg.Storage.Local.Path)
	}

	t.Setenv("CATALOG_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "option-catalog")
	t.Setenv("AWS_REGION", "ap-south-1")
	cfg, err = LoadConfig(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.S3.Bucket != "option-catalog" || cfg.Storage.S3.Region != "ap-south-1" {
		t.Errorf("unexpected s3 settings: %+v", cfg.Storage)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name  string
		extra string
		want  string
	}{
		{"bad backend", "  backend: gcs\n", "storage.backend"},
		{"bad policy", "synthesis:\n  policy: magic\n", "synthesis.policy"},
		{"fixed without spread", "synthesis:\n  policy: fixed\n", "synthesis.fixed_spread"},
		{"bad compression", "writer:\n  compression: lzma\n", "writer.compression"},
	}
	for _, c := range cases {
		content := minimalConfig + c.extra
		if strings.HasPrefix(c.extra, "  backend") {
			content = strings.Replace(minimalConfig, "  backend: local\n", c.extra, 1)
		}
		_, err := LoadConfig(writeTempConfig(t, content))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err = %v, want mention of %s", c.name, err, c.want)
		}
	}
}

func TestLoadUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yml")
	content := `underlyings:
- symbol: nifty
  patterns: ["NIFTY25JAN24*", "NIFTY-INDEX.NSE"]
- symbol: banknifty
  venue: nse
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	u, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse failed: %v", err)
	}
	if len(u.Underlyings) != 2 {
		t.Fatalf("expected 2 underlyings, got %d", len(u.Underlyings))
	}
	if u.Underlyings[0].Venue != "NSE" || u.Underlyings[1].Symbol != "BANKNIFTY" {
		t.Errorf("unexpected underlyings: %+v", u.Underlyings)
	}
	got := u.Patterns()
	if len(got) != 3 || got[2] != "BANKNIFTY*" {
		t.Errorf("unexpected patterns: %v", got)
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if got := ResolvePath(""); got != "config/config.production.yml" {
		t.Errorf("ResolvePath = %s", got)
	}
	if got := ResolvePath("custom.yml"); got != "custom.yml" {
		t.Errorf("ResolvePath = %s", got)
	}
	cfg := &Config{Storage: StorageConfig{Backend: "memory"}}
	if err := cfg.CheckEnvironment(AppEnvironment()); err == nil {
		t.Error("memory backend accepted in production")
	}
}
