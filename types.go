package southbound

// Re-export types from the types sub-package so callers only need the
// root package for the common cases.

import (
	"github.com/nanoncore/cpe-southbound/types"
)

// Type aliases for the public surface
type (
	Family               = types.Family
	Transport            = types.Transport
	Capability           = types.Capability
	ConnectionDescriptor = types.ConnectionDescriptor
	Executor             = types.Executor
	Session              = types.Session
	ConnectionCheck      = types.ConnectionCheck
	OpticalPowerReading  = types.OpticalPowerReading
	WiFiConfiguration    = types.WiFiConfiguration
	WiFiState            = types.WiFiState
	TrafficCounters      = types.TrafficCounters
	CommandTable         = types.CommandTable
	DeviceError          = types.DeviceError
)

// Result is the uniform outcome of every public operation
type Result[T any] = types.Result[T]

// Re-export constants
const (
	FamilyGPON     = types.FamilyGPON
	FamilyEPON     = types.FamilyEPON
	FamilyMikrotik = types.FamilyMikrotik
	FamilyMock     = types.FamilyMock

	TransportTelnet = types.TransportTelnet
	TransportSSH    = types.TransportSSH

	CapabilityOpticalPower = types.CapabilityOpticalPower
	CapabilityWiFi         = types.CapabilityWiFi
	CapabilityTraffic      = types.CapabilityTraffic

	WiFiStateEnabled  = types.WiFiStateEnabled
	WiFiStateDisabled = types.WiFiStateDisabled
	WiFiStateUnknown  = types.WiFiStateUnknown
)

// Re-export sentinel errors
var (
	ErrNotConnected      = types.ErrNotConnected
	ErrInvalidDescriptor = types.ErrInvalidDescriptor
	ErrAuthFailed        = types.ErrAuthFailed
	ErrConnectTimeout    = types.ErrConnectTimeout
	ErrCommandTimeout    = types.ErrCommandTimeout
	ErrProbeExhausted    = types.ErrProbeExhausted
)
