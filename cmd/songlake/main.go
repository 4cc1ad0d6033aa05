// Command songlake runs one full batch recompute of the star schema: it
// loads the run configuration, wires logging and metrics, and executes the
// catalog and event stages against the configured input and output roots.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"songlake/internal/config"
	"songlake/internal/metrics"
	"songlake/internal/metrics/prompush"
	"songlake/internal/pipeline"
)

func main() {
	var (
		cfgPath  string
		validate bool
	)
	flag.StringVar(&cfgPath, "config", "dl.cfg", "run config TOML path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(log)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("configuration is invalid", "path", cfgPath, "err", err)
		os.Exit(1)
	}
	if validate {
		log.Info("configuration is valid", "path", cfgPath)
		os.Exit(0)
	}

	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Warn("metrics init failed, using nop", "err", err)
		} else {
			log.Info("metrics", "backend", "pushgateway", "url", cfg.Metrics.PushgatewayURL, "job", cfg.Metrics.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn("metrics flush", "err", err)
				}
			}()
		}
	default:
		log.Debug("metrics disabled")
	}

	log.Info("starting run", "input", cfg.InputRoot, "output", cfg.OutputRoot)
	if err := pipeline.New(cfg, log).Run(context.Background()); err != nil {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
