package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nanoncore/cpe-southbound/config"
	"github.com/nanoncore/cpe-southbound/fleet"
	"github.com/nanoncore/cpe-southbound/metrics"
)

const testConfig = `
timeout: 5s
scan:
  dials_per_second: 0
global:
  username: admin
  password: admin
devices:
  ont-huawei:
    host: 192.0.2.1
    family: mock
    metadata:
      mock_vendor: huawei
  ont-locked:
    host: 192.0.2.2
    family: mock
    metadata:
      mock_fail: auth
  router:
    host: 192.0.2.3
    family: mock
    metadata:
      mock_vendor: mikrotik
`

func newTestExporter(t *testing.T, yaml string) (*exporter, *httptest.Server, *metrics.Collector, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cpe-exporter.yml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	sc := config.New(path)
	require.NoError(t, sc.LoadConfig())

	registry := prometheus.NewRegistry()
	global, err := metrics.NewCollector(registry)
	require.NoError(t, err)

	e := newExporter(sc, zaptest.NewLogger(t), registry, global)
	srv := httptest.NewServer(e.mux(sc.Get()))
	t.Cleanup(srv.Close)
	return e, srv, global, path
}

func TestProbeHandler(t *testing.T) {
	_, srv, global, _ := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/probe?target=ont-huawei")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readAll(t, resp)
	assert.Contains(t, body, "probe_success 1")
	assert.Contains(t, body, `cpe_optical_rx_power_dbm{device="ont-huawei"}`)
	assert.Contains(t, body, `cpe_traffic_bytes{device="ont-huawei",direction="in"}`)
	assert.Contains(t, body, `cpe_probes_total{capability="wifi",result="ok"} 1`)

	assert.Equal(t, 1.0, testutil.ToFloat64(global.Probes.WithLabelValues("optical_power", "ok")))
}

func TestProbeHandlerFailure(t *testing.T) {
	_, srv, _, _ := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/probe?target=ont-locked")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), "probe_success 0")
}

func TestProbeHandlerBadRequests(t *testing.T) {
	_, srv, _, _ := newTestExporter(t, testConfig)

	for _, query := range []string{"", "?target=nope"} {
		resp, err := http.Get(srv.URL + "/probe" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestScanHandler(t *testing.T) {
	_, srv, global, _ := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/scan")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out scanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	require.Len(t, out.Devices, 3)
	assert.Equal(t, "ont-huawei", out.Devices[0].Name)
	assert.Equal(t, fleet.StatusOK, out.Devices[0].Status)
	assert.Equal(t, fleet.StatusUnreachable, out.Devices[1].Status)
	assert.Equal(t, fleet.StatusOK, out.Devices[2].Status)
	assert.Equal(t, 2, out.Summary[fleet.StatusOK])

	assert.Equal(t, 1.0, testutil.ToFloat64(global.ProbeSuccess.WithLabelValues("router", "traffic")))
}

func TestScanHandlerOmitsPassphrases(t *testing.T) {
	_, srv, _, _ := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/scan")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readAll(t, resp)
	assert.Contains(t, body, `"ssid"`)
	assert.NotContains(t, body, "passphrase")
}

func TestScanHandlerFamilyFilter(t *testing.T) {
	_, srv, _, _ := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/scan?family=gpon")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out scanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Devices)

	bad, err := http.Get(srv.URL + "/scan?family=adsl")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestReloadHandler(t *testing.T) {
	e, srv, _, path := newTestExporter(t, testConfig)

	resp, err := http.Get(srv.URL + "/-/reload")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	require.NoError(t, os.WriteFile(path, []byte("global: {username: admin}\ndevices:\n  one: {host: 192.0.2.9, family: mock}\n"), 0o600))
	resp, err = http.Post(srv.URL+"/-/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"one"}, e.sc.Get().DeviceNames())

	require.NoError(t, os.WriteFile(path, []byte("devices: ["), 0o600))
	resp, err = http.Post(srv.URL+"/-/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, []string{"one"}, e.sc.Get().DeviceNames())
}

func TestGetTimeout(t *testing.T) {
	cfg := config.DefaultConfig()

	r := httptest.NewRequest(http.MethodGet, "/probe", nil)
	assert.Equal(t, cfg.Timeout, getTimeout(&cfg, r))

	r.Header.Set("X-Prometheus-Scrape-Timeout-Seconds", "9.5")
	assert.Equal(t, 9500*time.Millisecond, getTimeout(&cfg, r))

	r.Header.Set("X-Prometheus-Scrape-Timeout-Seconds", "soon")
	assert.Equal(t, cfg.Timeout, getTimeout(&cfg, r))
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
