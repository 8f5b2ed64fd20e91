//go:build integration
// +build integration

package southbound

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// TestProbe_Integration runs the three probes against a real CPE.
// Run with: CPE_HOST=192.168.100.1 CPE_FAMILY=gpon go test -tags=integration -v -run TestProbe_Integration .
func TestProbe_Integration(t *testing.T) {
	host := os.Getenv("CPE_HOST")
	if host == "" {
		t.Skip("CPE_HOST not set")
	}
	family, ok := parseFamilyEnv(os.Getenv("CPE_FAMILY"))
	if !ok {
		t.Fatalf("unknown CPE_FAMILY %q", os.Getenv("CPE_FAMILY"))
	}
	port, _ := strconv.Atoi(os.Getenv("CPE_PORT"))

	desc := &ConnectionDescriptor{
		Name:      "integration-cpe",
		Host:      host,
		Port:      port,
		Username:  envOr("CPE_USERNAME", "admin"),
		Password:  envOr("CPE_PASSWORD", "admin"),
		Family:    family,
		Transport: Transport(envOr("CPE_TRANSPORT", string(TransportTelnet))),
	}

	client, err := NewClient(desc, WithLogger(zaptest.NewLogger(t)), WithCommandTimeout(20*time.Second))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	ctx := context.Background()

	if res := client.Connect(ctx); !res.OK {
		t.Fatalf("failed to connect: %s", res.Error)
	}
	defer client.Disconnect(ctx)

	t.Run("optical_power", func(t *testing.T) {
		res := client.ProbeOpticalPower(ctx)
		if !res.OK {
			t.Fatalf("ProbeOpticalPower failed: %s", res.Error)
		}
		t.Logf("command %q rx=%v tx=%v", res.Data.Command, deref(res.Data.RxPowerDBm), deref(res.Data.TxPowerDBm))
	})

	t.Run("wifi", func(t *testing.T) {
		res := client.ProbeWiFiSettings(ctx)
		if !res.OK {
			t.Fatalf("ProbeWiFiSettings failed: %s", res.Error)
		}
		t.Logf("command %q ssid=%q enabled=%v state=%s", res.Data.Command, res.Data.SSID, res.Data.Enabled, res.Data.State)
	})

	t.Run("traffic", func(t *testing.T) {
		res := client.ProbeTrafficStats(ctx)
		if !res.OK {
			t.Fatalf("ProbeTrafficStats failed: %s", res.Error)
		}
		t.Logf("command %q in=%d out=%d", res.Data.Command, res.Data.BytesIn, res.Data.BytesOut)
	})
}

func parseFamilyEnv(s string) (Family, bool) {
	if s == "" {
		return FamilyGPON, true
	}
	for _, f := range GetSupportedFamilies() {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func deref(v *float64) any {
	if v == nil {
		return "n/a"
	}
	return *v
}
