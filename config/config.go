package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Writer    WriterConfig    `yaml:"writer"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type CatalogConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type StorageConfig struct {
	// Backend is one of local, s3 or memory.
	Backend string      `yaml:"backend"`
	Local   LocalConfig `yaml:"local"`
	S3      S3Config    `yaml:"s3"`
}

type LocalConfig struct {
	Path string `yaml:"path"`
}

type S3Config struct {
	Bucket            string        `yaml:"bucket"`
	Region            string        `yaml:"region"`
	Endpoint          string        `yaml:"endpoint"`
	PathStyle         bool          `yaml:"path_style"`
	Prefix            string        `yaml:"prefix"`
	AccessKeyID       string        `yaml:"access_key_id"`
	SecretAccessKey   string        `yaml:"secret_access_key"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

type WriterConfig struct {
	Compression       string `yaml:"compression"`
	RowGroupSize      int64  `yaml:"row_group_size"`
	Parallelism       int64  `yaml:"parallelism"`
	Strict            bool   `yaml:"strict"`
	SkipDisjointCheck bool   `yaml:"skip_disjoint_check"`
}

type CalendarConfig struct {
	HolidaysFile  string   `yaml:"holidays_file"`
	BuiltinNSE    bool     `yaml:"builtin_nse"`
	Weekend       []string `yaml:"weekend"`
	ExpiryWeekday string   `yaml:"expiry_weekday"`
}

type SynthesisConfig struct {
	// Policy is one of zero, fixed or range.
	Policy        string `yaml:"policy"`
	FixedSpread   string `yaml:"fixed_spread"`
	RangeFraction string `yaml:"range_fraction"`
	Window        int    `yaml:"window"`
	Workers       int    `yaml:"workers"`
	RoundToTick   bool   `yaml:"round_to_tick"`
}

type EnrichConfig struct {
	// SpotLookback bounds how far back a spot quote may be; zero is unbounded.
	SpotLookback time.Duration `yaml:"spot_lookback"`
}

type LoggingConfig struct {
	Level  string                 `yaml:"level"`
	Format string                 `yaml:"format"`
	Output string                 `yaml:"output"`
	MaxAge int                    `yaml:"max_age"`
	Fields map[string]interface{} `yaml:"fields"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	CloudWatch struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
		Dashboard string `yaml:"dashboard"`
		Region    string `yaml:"region"`
	} `yaml:"cloudwatch"`
}

func defaults() Config {
	cfg := Config{
		Storage: StorageConfig{
			Backend: "local",
			Local:   LocalConfig{Path: "./catalog"},
			S3:      S3Config{RequestsPerSecond: 50, Burst: 10, Timeout: 2 * time.Minute},
		},
		Writer: WriterConfig{
			Compression:  "snappy",
			RowGroupSize: 128 * 1024 * 1024,
			Parallelism:  1,
		},
		Calendar: CalendarConfig{
			BuiltinNSE:    true,
			Weekend:       []string{"saturday", "sunday"},
			ExpiryWeekday: "thursday",
		},
		Synthesis: SynthesisConfig{Policy: "zero", Window: 20, Workers: 4},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Metrics:   MetricsConfig{ListenAddr: ":9090"},
	}
	cfg.Metrics.CloudWatch.Namespace = "OptionCatalog"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&config)

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Synthesis.Policy = strings.ToLower(strings.TrimSpace(config.Synthesis.Policy))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		config.Storage.Local.Path = strings.TrimSpace(v)
	}
	if v := os.Getenv("CATALOG_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	// Override S3 settings from environment variables if available
	if strings.EqualFold(config.Storage.Backend, "s3") {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Catalog.Name == "" {
		return fmt.Errorf("catalog.name is required")
	}

	if cfg.Catalog.Version == "" {
		return fmt.Errorf("catalog.version is required")
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "local":
		if cfg.Storage.Local.Path == "" {
			return fmt.Errorf("storage.local.path is required for the local backend")
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required for the s3 backend")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
		if cfg.Storage.S3.RequestsPerSecond <= 0 {
			return fmt.Errorf("storage.s3.requests_per_second must be greater than 0")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of local, s3, memory", cfg.Storage.Backend)
	}

	switch strings.ToLower(cfg.Writer.Compression) {
	case "", "snappy", "gzip", "zstd", "uncompressed", "none":
	default:
		return fmt.Errorf("writer.compression %q is not supported", cfg.Writer.Compression)
	}
	if cfg.Writer.Parallelism <= 0 {
		return fmt.Errorf("writer.parallelism must be greater than 0")
	}

	if len(cfg.Calendar.Weekend) == 0 {
		return fmt.Errorf("calendar.weekend must list at least one day")
	}
	if cfg.Calendar.ExpiryWeekday == "" {
		return fmt.Errorf("calendar.expiry_weekday is required")
	}

	switch cfg.Synthesis.Policy {
	case "zero":
	case "fixed":
		if cfg.Synthesis.FixedSpread == "" {
			return fmt.Errorf("synthesis.fixed_spread is required for the fixed policy")
		}
	case "range":
		if cfg.Synthesis.RangeFraction == "" {
			return fmt.Errorf("synthesis.range_fraction is required for the range policy")
		}
		if cfg.Synthesis.Window <= 0 {
			return fmt.Errorf("synthesis.window must be greater than 0")
		}
	default:
		return fmt.Errorf("synthesis.policy %q is not one of zero, fixed, range", cfg.Synthesis.Policy)
	}
	if cfg.Synthesis.Workers <= 0 {
		return fmt.Errorf("synthesis.workers must be greater than 0")
	}

	if cfg.Enrich.SpotLookback < 0 {
		return fmt.Errorf("enrich.spot_lookback must not be negative")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
