package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"optioncatalog/config"
	"optioncatalog/internal/catalog"
	"optioncatalog/internal/metrics"
	"optioncatalog/internal/storage"
	"optioncatalog/logger"
)

const usage = `usage: optioncatalog [-config path] <command> [flags]

commands:
  contracts   write index and continuous future metadata for a universe file
  synthesize  derive the quote tier from bars
  enrich      print enriched rows as JSON lines
  expiries    print the expiry schedule of a year as JSON lines
  validate    report bars that fail data quality checks
`

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	env := config.AppEnvironment()
	if err := cfg.CheckEnvironment(env); err != nil {
		log.WithError(err).Error("configuration rejected")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Catalog.Name,
		"version":     cfg.Catalog.Version,
		"environment": env,
		"backend":     cfg.Storage.Backend,
	}).Info("starting optioncatalog")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, logger.ReportOptions{Interval: 30 * time.Second, DiskPath: cfg.Storage.Local.Path})
	}
	if cw := cfg.Metrics.CloudWatch; cw.Enabled {
		if err := logger.InitCloudWatch(ctx, cw.Region, cw.Namespace, cw.Dashboard); err != nil {
			log.WithComponent("cloudwatch").WithError(err).Warn("CloudWatch setup incomplete")
		}
		defer logger.FlushCloudWatch(context.Background())
	}

	var collectors *metrics.Collectors
	if cfg.Metrics.Enabled {
		collectors = metrics.New()
		go func() {
			if err := collectors.Serve(ctx, cfg.Metrics.ListenAddr); err != nil {
				log.WithComponent("metrics").WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to open storage")
		os.Exit(1)
	}
	cat, err := catalog.New(ctx, store,
		catalog.FromConfig(cfg.Writer),
		catalog.WithMetrics(collectors),
		catalog.WithManifests(),
		catalog.WithLogger(log),
	)
	if err != nil {
		log.WithError(err).Error("failed to open catalog")
		os.Exit(1)
	}

	tally := metrics.NewTally()
	defer metrics.Unsubscribe(metrics.Subscribe(tally.Observe))

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "contracts":
		err = runContracts(ctx, cat, args)
	case "synthesize":
		err = runSynthesize(ctx, cfg, cat, collectors, args)
	case "enrich":
		err = runEnrich(ctx, cfg, cat, collectors, os.Stdout, args)
	case "expiries":
		err = runExpiries(cfg, os.Stdout, args)
	case "validate":
		err = runValidate(ctx, cat, os.Stdout, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithComponent(cmd).WithError(err).Error("command failed")
		os.Exit(1)
	}
	log.WithComponent(cmd).WithFields(tally.Fields()).Info("command completed")
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewStore(storage.NewMemoryBlob()), nil
	case "s3":
		blob, err := storage.NewS3Blob(ctx, cfg.Storage.S3, cfg.Catalog.Version)
		if err != nil {
			return nil, err
		}
		return storage.NewStore(blob), nil
	default:
		blob, err := storage.NewLocalBlob(cfg.Storage.Local.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewStore(blob), nil
	}
}
