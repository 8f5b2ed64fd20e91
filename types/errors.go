package types

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the drivers and the probe engine
var (
	ErrNotConnected      = errors.New("Not connected")
	ErrInvalidDescriptor = errors.New("invalid connection descriptor")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrConnectTimeout    = errors.New("connect timed out")
	ErrCommandTimeout    = errors.New("timed out waiting for prompt")
	ErrProbeExhausted    = errors.New("no candidate command produced a usable result")
)

// Normalized device error codes
const (
	ErrCodeUnknownCommand = "UNKNOWN_CMD"
	ErrCodeIncomplete     = "INCOMPLETE_CMD"
	ErrCodePermission     = "PERMISSION_DENIED"
	ErrCodeBusy           = "DEVICE_BUSY"
	ErrCodeUnknown        = "UNKNOWN_ERROR"
)

// DeviceError wraps an error reply printed by the device CLI
type DeviceError struct {
	// Code is the normalized error code (e.g., "UNKNOWN_CMD")
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Raw is the raw error output from the device
	Raw string `json:"raw,omitempty"`

	// Recoverable indicates the same command may succeed later
	Recoverable bool `json:"recoverable"`
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return e.Code + ": " + e.Message
}

type errorMapping struct {
	pattern     string
	code        string
	human       string
	recoverable bool
}

// deviceErrorPatterns maps CLI error replies seen on Huawei, ZTE, RouterOS and
// busybox shells to structured errors. Matched case-insensitively, in order.
var deviceErrorPatterns = []errorMapping{
	{"unknown command", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"unrecognized command", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"command not found", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"bad command name", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"invalid input", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"syntax error", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"no such command", ErrCodeUnknownCommand, "Command not supported by this device", false},
	{"incomplete command", ErrCodeIncomplete, "Command needs more parameters on this device", false},
	{"permission denied", ErrCodePermission, "User level too low for this command", false},
	{"access denied", ErrCodePermission, "User level too low for this command", false},
	{"system is busy", ErrCodeBusy, "Device is busy", true},
}

// ClassifyOutput inspects command output for a device error reply. It only
// looks at the first lines so that long, valid output mentioning an error
// word is not misclassified. Returns nil when the output looks like data.
func ClassifyOutput(output string) *DeviceError {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}
	lines := strings.SplitN(trimmed, "\n", 4)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	head := strings.ToLower(strings.Join(lines, "\n"))

	for _, m := range deviceErrorPatterns {
		if strings.Contains(head, m.pattern) {
			return &DeviceError{
				Code:        m.code,
				Message:     m.human,
				Raw:         trimmed,
				Recoverable: m.recoverable,
			}
		}
	}
	return nil
}
