package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	southbound "github.com/nanoncore/cpe-southbound"
	"github.com/nanoncore/cpe-southbound/config"
	"github.com/nanoncore/cpe-southbound/fleet"
	"github.com/nanoncore/cpe-southbound/metrics"
	"github.com/nanoncore/cpe-southbound/probe"
	"github.com/nanoncore/cpe-southbound/types"
)

type exporter struct {
	sc       *config.SafeConfig
	log      *zap.Logger
	gatherer prometheus.Gatherer
	global   *metrics.Collector

	// reloads are serialized between SIGHUP and the API
	reloadMu sync.Mutex
}

func newExporter(sc *config.SafeConfig, log *zap.Logger, gatherer prometheus.Gatherer, global *metrics.Collector) *exporter {
	return &exporter{
		sc:       sc,
		log:      log,
		gatherer: gatherer,
		global:   global,
	}
}

func (e *exporter) mux(cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc(cfg.ProbePath, e.handleProbe)
	mux.HandleFunc(cfg.ScanPath, e.handleScan)
	mux.HandleFunc("/-/reload", e.handleReload)
	return mux
}

func (e *exporter) reload() error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	err := e.sc.LoadConfig()
	if err != nil {
		e.log.Error("error reloading config", zap.Error(err))
	} else {
		e.log.Info("reloaded config file")
	}
	return err
}

func (e *exporter) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "use POST", http.StatusMethodNotAllowed)
		return
	}
	e.log.Debug("config reload triggered by API")
	if err := e.reload(); err != nil {
		http.Error(w, fmt.Sprintf("failed to reload config: %s", err), http.StatusInternalServerError)
	}
}

// clientOptions wires the device options and the metrics of one request
func (e *exporter) clientOptions(log *zap.Logger, options *config.Options, collectors ...*metrics.Collector) []southbound.ClientOption {
	fanout := metrics.Fanout(append([]*metrics.Collector{e.global}, collectors...))
	return append(options.ClientOptions(log),
		southbound.WithSessionObserver(fanout),
		southbound.WithProbeObserver(fanout),
	)
}

func (e *exporter) handleProbe(w http.ResponseWriter, r *http.Request) {
	cfg := e.sc.Get()
	name := r.URL.Query().Get("target")
	if name == "" {
		e.log.Error("request with missing target")
		http.Error(w, "?target= missing", http.StatusBadRequest)
		return
	}

	log := e.log.With(zap.String("target", name))

	target, err := cfg.Target(name)
	if err != nil {
		log.Error("unknown target", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), getTimeout(cfg, r))
	defer cancel()
	r = r.WithContext(ctx)

	start := time.Now()
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		log.Error("error creating probe metrics", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var success float64 = 1
	client, err := southbound.NewClient(target.Descriptor, e.clientOptions(log, target.Options, collector)...)
	if err == nil {
		var snap probe.Snapshot
		snap, err = client.Collect(ctx)
		if err == nil {
			collector.RecordSnapshot(name, target.Descriptor.Family, snap)
			if !snap.AnyOK() {
				err = errors.New("no capability could be read")
			}
		}
	}
	if err != nil {
		log.Error("error probing device", zap.Error(err))
		success = 0
	}

	probeDurationGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_duration_seconds",
		Help: "Returns how long the probe took to complete in seconds",
	})
	registry.MustRegister(probeDurationGauge)
	probeDurationGauge.Set(time.Since(start).Seconds())

	probeSuccessGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_success",
		Help: "Displays whether or not the probe was a success",
	})
	registry.MustRegister(probeSuccessGauge)
	probeSuccessGauge.Set(success)

	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	h.ServeHTTP(w, r)
}

type scanResponse struct {
	Summary map[fleet.Status]int `json:"summary"`
	Devices []fleet.Report       `json:"devices"`
}

// handleScan probes every configured device, optionally filtered by
// ?family=, and answers with one JSON report per device.
func (e *exporter) handleScan(w http.ResponseWriter, r *http.Request) {
	cfg := e.sc.Get()

	targets, err := cfg.Targets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var family types.Family
	if f := r.URL.Query().Get("family"); f != "" {
		var ok bool
		if family, ok = types.ParseFamily(f); !ok {
			http.Error(w, "unknown family "+f, http.StatusBadRequest)
			return
		}
	}

	scanTargets := make([]fleet.Target, 0, len(targets))
	for _, t := range targets {
		if family != "" && t.Descriptor.Family != family {
			continue
		}
		log := e.log.With(zap.String("target", t.Name))
		scanTargets = append(scanTargets, fleet.Target{
			Name:       t.Name,
			Descriptor: t.Descriptor,
			Options:    e.clientOptions(log, t.Options),
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), getTimeout(cfg, r))
	defer cancel()

	scanner := fleet.NewScanner(
		fleet.WithConcurrency(cfg.Scan.Concurrency),
		fleet.WithDialRate(cfg.Scan.DialsPerSecond, cfg.Scan.Burst),
		fleet.WithLogger(e.log),
		fleet.WithReportHook(func(rep fleet.Report) {
			if rep.Status == fleet.StatusOK || rep.Status == fleet.StatusPartial {
				e.global.RecordSnapshot(rep.Name, rep.Family, rep.Snapshot)
			}
		}),
	)

	reports, err := scanner.Scan(ctx, scanTargets)
	if err != nil {
		e.log.Warn("scan ended early", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(scanResponse{Summary: fleet.Summary(reports), Devices: reports}); err != nil {
		e.log.Error("error writing scan response", zap.Error(err))
	}
}

func getTimeout(cfg *config.Config, r *http.Request) time.Duration {
	value := r.Header.Get("X-Prometheus-Scrape-Timeout-Seconds")
	if value != "" {
		timeout, err := strconv.ParseFloat(value, 64)
		if err == nil && timeout > 0 {
			return time.Duration(timeout * float64(time.Second))
		}
	}
	return cfg.Timeout
}
