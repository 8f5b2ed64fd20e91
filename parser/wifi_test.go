package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanoncore/cpe-southbound/types"
)

func TestParseWiFiSettings(t *testing.T) {
	tests := []struct {
		name           string
		output         string
		wantSSID       string
		wantPassphrase string
		wantEnabled    bool
		wantState      types.WiFiState
	}{
		{
			name:           "colon separated",
			output:         "SSID: MyNet\nPassword: secret",
			wantSSID:       "MyNet",
			wantPassphrase: "secret",
			wantEnabled:    true,
			wantState:      types.WiFiStateUnknown,
		},
		{
			name:           "Huawei ONT wlan",
			output:         "SSID Index       : 1\nSSID             : HomeNet-5G\nWPA PreSharedKey : s3cretpass\nStatus           : enabled",
			wantSSID:       "HomeNet-5G",
			wantPassphrase: "s3cretpass",
			wantEnabled:    true,
			wantState:      types.WiFiStateEnabled,
		},
		{
			name:           "ZTE wlan disabled",
			output:         "SSID Name: ZTE-Home\nWPA Key: abc12345\nWireless Status: Disabled",
			wantSSID:       "ZTE-Home",
			wantPassphrase: "abc12345",
			wantEnabled:    false,
			wantState:      types.WiFiStateDisabled,
		},
		{
			name: "RouterOS wireless print",
			output: ` 0    name="wlan1" mode=ap-bridge ssid="MikroTik-AP" frequency=auto
      security-profile=default wpa2-pre-shared-key="routerpass"`,
			wantSSID:       "MikroTik-AP",
			wantPassphrase: "routerpass",
			wantEnabled:    true,
			wantState:      types.WiFiStateUnknown,
		},
		{
			name:           "UCI single quoted",
			output:         "wireless.default_radio0.ssid='OpenWrt'\nwireless.default_radio0.encryption='psk2'\nwireless.default_radio0.key='hunter22'",
			wantSSID:       "OpenWrt",
			wantPassphrase: "hunter22",
			wantEnabled:    true,
			wantState:      types.WiFiStateUnknown,
		},
		{
			name:        "bare ssid token",
			output:      "ssid GuestNet",
			wantSSID:    "GuestNet",
			wantEnabled: true,
			wantState:   types.WiFiStateUnknown,
		},
		{
			name:           "bare ssid with spaces",
			output:         "SSID My Home Net\nWPA key: s3cret",
			wantSSID:       "My Home Net",
			wantPassphrase: "s3cret",
			wantEnabled:    true,
			wantState:      types.WiFiStateUnknown,
		},
		{
			name:        "bare ssid runs to the end of the line",
			output:      "ssid MyNet (broadcast)",
			wantSSID:    "MyNet (broadcast)",
			wantEnabled: true,
			wantState:   types.WiFiStateUnknown,
		},
		{
			name:        "ssid index line is not a name",
			output:      "SSID Index : 1",
			wantEnabled: true,
			wantState:   types.WiFiStateUnknown,
		},
		{
			name:        "hide-ssid is not an ssid",
			output:      "hide-ssid no",
			wantEnabled: true,
			wantState:   types.WiFiStateUnknown,
		},
		{
			name:           "empty ssid value does not borrow the next line",
			output:         "SSID:\nPassword: x",
			wantPassphrase: "x",
			wantEnabled:    true,
			wantState:      types.WiFiStateUnknown,
		},
		{
			name:        "disabled in any case",
			output:      "SSID: Office\nRADIO DISABLED",
			wantSSID:    "Office",
			wantEnabled: false,
			wantState:   types.WiFiStateDisabled,
		},
		{
			name:        "no markers",
			output:      "% Unknown command.",
			wantEnabled: true,
			wantState:   types.WiFiStateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseWiFiSettings(tt.output)
			assert.Equal(t, tt.wantSSID, got.SSID)
			assert.Equal(t, tt.wantPassphrase, got.Passphrase)
			assert.Equal(t, tt.wantEnabled, got.Enabled)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantSSID != "", got.HasData())
		})
	}
}
