package config

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

var (
	configReloadSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cpe_exporter",
		Name:      "config_last_reload_successful",
		Help:      "CPE exporter config loaded successfully.",
	})

	configReloadSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cpe_exporter",
		Name:      "config_last_reload_success_timestamp_seconds",
		Help:      "Timestamp of the last successful configuration reload.",
	})
)

// RegisterMetrics exposes the reload gauges on reg. Registering twice is
// not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{configReloadSuccess, configReloadSeconds} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

type SafeConfig struct {
	sync.RWMutex
	configFile string
	c          *Config
}

func (sc *SafeConfig) Get() *Config {
	sc.RLock()
	defer sc.RUnlock()
	return sc.c
}

func New(configFile string) *SafeConfig {
	c := DefaultConfig()
	return &SafeConfig{
		c:          &c,
		configFile: configFile,
	}
}

func (sc *SafeConfig) LoadConfig() (err error) {
	defer func() {
		if err != nil {
			configReloadSuccess.Set(0)
		} else {
			configReloadSuccess.Set(1)
			configReloadSeconds.SetToCurrentTime()
		}
	}()

	yamlReader, err := os.Open(sc.configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	defer yamlReader.Close()

	c, err := Parse(yamlReader)
	if err != nil {
		return err
	}

	sc.Lock()
	defer sc.Unlock()
	sc.c = c

	return nil
}

// Parse decodes one YAML document, rejecting unknown keys
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil {
		if err == io.EOF {
			d := DefaultConfig()
			return &d, nil
		}
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return c, nil
}
