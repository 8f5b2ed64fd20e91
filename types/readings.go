package types

// OpticalPowerReading holds the ONT optical levels. A nil field means the
// value could not be read; 0 dBm is a valid reading.
type OpticalPowerReading struct {
	// RxPowerDBm is what the ONT receives from the OLT
	RxPowerDBm *float64 `json:"rx_power_dbm,omitempty"`

	// TxPowerDBm is what the ONT transmits
	TxPowerDBm *float64 `json:"tx_power_dbm,omitempty"`

	// Command is the CLI command that produced the reading
	Command string `json:"command,omitempty"`
}

// HasData reports whether at least one level was read
func (r OpticalPowerReading) HasData() bool {
	return r.RxPowerDBm != nil || r.TxPowerDBm != nil
}

// WithinSpec checks the reading against the family thresholds. The second
// return value is false when either level is unknown.
func (r OpticalPowerReading) WithinSpec(family Family) (bool, bool) {
	if r.RxPowerDBm == nil || r.TxPowerDBm == nil {
		return false, false
	}
	t := ThresholdsFor(family)
	return t.Contains(*r.RxPowerDBm, *r.TxPowerDBm), true
}

// WiFiState is the tri-state radio status
type WiFiState string

const (
	WiFiStateEnabled  WiFiState = "enabled"
	WiFiStateDisabled WiFiState = "disabled"
	WiFiStateUnknown  WiFiState = "unknown"
)

// WiFiConfiguration holds the primary WLAN settings
type WiFiConfiguration struct {
	// SSID is empty when not found
	SSID string `json:"ssid"`

	// Passphrase is empty when not found. It is never serialized.
	Passphrase string `json:"-"`

	// Enabled is true unless the output explicitly says "disabled"
	Enabled bool `json:"enabled"`

	// State distinguishes an explicit enable from a missing indicator
	State WiFiState `json:"state"`

	// Command is the CLI command that produced the settings
	Command string `json:"command,omitempty"`
}

// HasData reports whether an SSID was found
func (w WiFiConfiguration) HasData() bool {
	return w.SSID != ""
}

// TrafficCounters holds interface counters. Zero means absent: an idle
// interface cannot be told apart from a failed parse.
type TrafficCounters struct {
	BytesIn    uint64 `json:"bytes_in"`
	BytesOut   uint64 `json:"bytes_out"`
	PacketsIn  uint64 `json:"packets_in"`
	PacketsOut uint64 `json:"packets_out"`

	// Command is the CLI command that produced the counters
	Command string `json:"command,omitempty"`
}

// HasData reports whether at least one byte counter is positive
func (t TrafficCounters) HasData() bool {
	return t.BytesIn > 0 || t.BytesOut > 0
}

// PowerThresholds is the acceptable ONT optical window for a PON flavour
type PowerThresholds struct {
	RxHigh float64
	RxLow  float64
	TxHigh float64
	TxLow  float64
}

// Contains checks both levels against the window
func (t PowerThresholds) Contains(rxDBm, txDBm float64) bool {
	rxOK := rxDBm >= t.RxLow && rxDBm <= t.RxHigh
	txOK := txDBm >= t.TxLow && txDBm <= t.TxHigh
	return rxOK && txOK
}

// Typical ONT optical power windows
var (
	// GPON class B+: Rx -8 to -28 dBm, Tx 0.5 to 5 dBm
	GPONThresholds = PowerThresholds{RxHigh: -8.0, RxLow: -28.0, TxHigh: 5.0, TxLow: 0.5}

	// EPON PX20+: Rx -3 to -27 dBm, Tx -1 to 4 dBm
	EPONThresholds = PowerThresholds{RxHigh: -3.0, RxLow: -27.0, TxHigh: 4.0, TxLow: -1.0}
)

// ThresholdsFor returns the window for a family; non-PON families use GPON
func ThresholdsFor(family Family) PowerThresholds {
	if family == FamilyEPON {
		return EPONThresholds
	}
	return GPONThresholds
}
