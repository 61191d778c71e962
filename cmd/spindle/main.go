package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"github.com/StefanGrimminck/Spindle/internal/cache"
	"github.com/StefanGrimminck/Spindle/internal/config"
	"github.com/StefanGrimminck/Spindle/internal/engine"
	"github.com/StefanGrimminck/Spindle/internal/enrich"
	"github.com/StefanGrimminck/Spindle/internal/export"
	"github.com/StefanGrimminck/Spindle/internal/input"
	"github.com/StefanGrimminck/Spindle/internal/rdns"
	"github.com/StefanGrimminck/Spindle/internal/rir"
)

func main() {
	configPath := flag.String("config", "spindle.toml", "Path to config file (TOML)")
	listFile := flag.String("list", "", "IP list file; empty value picks the newest *.txt in the working directory")
	excelFile := flag.String("excel", "", "SSL inspection spreadsheet; empty value picks the newest *.xlsx")
	cacheFile := flag.String("cache", "", "Cache file, overriding the configured path")
	jsonExport := flag.String("json-export", "", "Export list results to this JSON file")
	excelExport := flag.String("excel-export", "", "Export list results to this Excel file")
	flag.Parse()

	provided := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { provided[f.Name] = true })

	cfg, err := loadConfig(*configPath, provided["config"])
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logLevel := zerolog.InfoLevel
	switch cfg.Logging.Level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	var log zerolog.Logger
	if cfg.Logging.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	listPath, listErr := resolveInputPath(*listFile, provided["list"], "*.txt")
	if listErr != nil {
		log.Info().Err(listErr).Msg("no IP list found, list mode skipped")
	}
	excelPath, excelErr := resolveInputPath(*excelFile, provided["excel"], "*.xlsx")
	if excelErr != nil {
		log.Info().Err(excelErr).Msg("no spreadsheet found, spreadsheet mode skipped")
	}
	if listPath == "" && excelPath == "" {
		log.Error().Msg("nothing to do: pass -list and/or -excel")
		os.Exit(1)
	}

	cachePath := cfg.Cache.Path
	if *cacheFile != "" {
		cachePath = *cacheFile
	}
	store := cache.Load(cachePath, log)
	log.Info().Str("path", cachePath).Int("entries", store.Len()).Msg("cache loaded")

	rirClient := rir.NewClient(rir.Options{
		Timeout:   time.Duration(cfg.Lookup.TimeoutSeconds) * time.Second,
		Interval:  time.Duration(cfg.Lookup.RequestIntervalMS) * time.Millisecond,
		Retries:   cfg.Lookup.Retries,
		RetryWait: time.Duration(cfg.Lookup.RetryWaitSeconds) * time.Second,
	}, log)

	var reverser engine.ReverseResolver
	if cfg.RDNS.Enabled {
		reverser = rdns.NewResolver(time.Duration(cfg.RDNS.TimeoutSeconds) * time.Second)
	}

	enricher, err := enrich.NewEnricher(cfg.Enrichment.GeoIPDBPath, cfg.Enrichment.ASNDBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("enricher")
	}
	defer func() {
		if err := enricher.Close(); err != nil {
			log.Warn().Err(err).Msg("enricher close")
		}
	}()

	promReg := prometheus.NewRegistry()
	eng := &engine.Engine{
		RIR:       rirClient,
		RDNS:      reverser,
		Geo:       enricher,
		Log:       log,
		Metrics:   engine.NewMetrics(promReg),
		TTL:       cfg.TTL(),
		Window:    cfg.Lookup.CooldownWindow,
		Cooldown:  time.Duration(cfg.Lookup.CooldownSeconds) * time.Second,
		SaveEvery: cfg.Cache.SaveInterval,
	}

	ctx := context.Background()
	start := time.Now()

	if listPath != "" {
		runList(ctx, eng, store, listPath, *jsonExport, *excelExport, cfg, log)
	}
	if excelPath != "" {
		runSpreadsheet(ctx, eng, store, excelPath, cfg, log)
	}

	if cfg.Observability.MetricsTextfile != "" {
		if err := writeMetricsTextfile(cfg.Observability.MetricsTextfile, promReg); err != nil {
			log.Warn().Err(err).Msg("metrics textfile")
		}
	}
	log.Info().Dur("duration", time.Since(start)).Msg("run complete")
}

func runList(ctx context.Context, eng *engine.Engine, store *cache.Store,
	listPath, jsonExport, excelExport string, cfg *config.Config, log zerolog.Logger) {
	log.Info().Str("file", listPath).Msg("resolving IPs from text file")
	tokens, err := input.ReadList(listPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read IP list")
	}

	result, stats := eng.Resolve(ctx, tokens, store)
	if err := export.AppendNotFound(cfg.Output.NotFoundFile, result.NotFound()); err != nil {
		log.Warn().Err(err).Msg("not-found sidecar")
	}

	records := export.Records(tokens, result)
	if jsonExport != "" {
		log.Info().Str("file", jsonExport).Msg("exporting to JSON")
		if err := export.WriteJSON(jsonExport, records); err != nil {
			log.Error().Err(err).Msg("json export")
		}
	}
	if excelExport != "" {
		log.Info().Str("file", excelExport).Msg("exporting to Excel")
		if err := export.WriteExcel(excelExport, records); err != nil {
			log.Error().Err(err).Msg("excel export")
		}
	}
	log.Info().Int("cache_hits", stats.CacheHits).Int("lookups", stats.Lookups).Msg("list mode done")
}

func runSpreadsheet(ctx context.Context, eng *engine.Engine, store *cache.Store,
	excelPath string, cfg *config.Config, log zerolog.Logger) {
	log.Info().Str("file", excelPath).Msg("resolving IPs from SSL inspection spreadsheet")
	entries, err := input.ReadSheet(excelPath, cfg.Excel.Sheets)
	if err != nil {
		log.Fatal().Err(err).Msg("read spreadsheet")
	}

	tokens := make([]string, 0, len(entries))
	for _, e := range entries {
		tokens = append(tokens, e.Token)
	}
	result, stats := eng.Resolve(ctx, tokens, store)
	if err := export.AppendNotFound(cfg.Output.NotFoundFile, result.NotFound()); err != nil {
		log.Warn().Err(err).Msg("not-found sidecar")
	}
	if err := export.UpdateSheet(excelPath, entries, result); err != nil {
		log.Fatal().Err(err).Msg("update spreadsheet")
	}
	log.Info().Int("cache_hits", stats.CacheHits).Int("lookups", stats.Lookups).Msg("spreadsheet mode done")
}

// loadConfig falls back to defaults when the default config file is absent;
// an explicitly named file must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// resolveInputPath applies the "newest matching file" heuristic when a mode
// flag is given without a value. A mode whose flag is absent stays off.
func resolveInputPath(value string, given bool, pattern string) (string, error) {
	if !given {
		return "", nil
	}
	if value != "" {
		return value, nil
	}
	return input.LatestFile(".", pattern)
}

func writeMetricsTextfile(path string, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
