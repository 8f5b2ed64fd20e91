package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nanoncore/cpe-southbound/config"
	"github.com/nanoncore/cpe-southbound/metrics"
)

// set via -ldflags
var (
	version  = "dev"
	revision = "unknown"
)

func main() {
	// parse command line args
	configFile := flag.String("config.file", "cpe-exporter.yml", "path to the YAML configuration")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zap.InfoLevel
	if *debug {
		level = zap.DebugLevel
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	log.Info("starting cpe-exporter", zap.String("version", version), zap.String("revision", revision))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := config.RegisterMetrics(registry); err != nil {
		log.Fatal("error registering config metrics", zap.Error(err))
	}
	global, err := metrics.NewCollector(registry)
	if err != nil {
		log.Fatal("error registering metrics", zap.Error(err))
	}

	// inital config load
	sc := config.New(*configFile)
	if err := sc.LoadConfig(); err != nil {
		log.Fatal("error loading config", zap.Error(err))
	}

	e := newExporter(sc, log, registry, global)

	// setup config reload
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			log.Debug("config reload triggered by SIGHUP")
			e.reload()
		}
	}()

	cfg := sc.Get()
	log.Info("starting http server",
		zap.String("metrics_path", cfg.MetricsPath),
		zap.String("probe_path", cfg.ProbePath),
		zap.String("scan_path", cfg.ScanPath),
		zap.String("listen", cfg.Listen))

	if err := http.ListenAndServe(cfg.Listen, e.mux(cfg)); err != nil {
		log.Fatal("error starting http server", zap.Error(err))
	}
}
