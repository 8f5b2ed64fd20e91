package common

import "time"

// Descriptor metadata keys understood by the drivers
const (
	MetaPrompt         = "prompt"
	MetaLoginPrompt    = "login_prompt"
	MetaPasswordPrompt = "password_prompt"
	MetaCommandTimeout = "command_timeout"
)

// MetadataString retrieves a non-empty value from descriptor metadata.
// Keys are checked in order - first match wins.
func MetadataString(metadata map[string]string, keys ...string) (string, bool) {
	if metadata == nil {
		return "", false
	}
	for _, key := range keys {
		if value, ok := metadata[key]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// MetadataDuration retrieves a Go duration ("15s", "1m") from metadata.
// Unparseable and non-positive values are skipped.
func MetadataDuration(metadata map[string]string, keys ...string) (time.Duration, bool) {
	if metadata == nil {
		return 0, false
	}
	for _, key := range keys {
		if raw, ok := metadata[key]; ok {
			if d, err := time.ParseDuration(raw); err == nil && d > 0 {
				return d, true
			}
		}
	}
	return 0, false
}
