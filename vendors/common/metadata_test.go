package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadataString(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]string
		keys      []string
		wantValue string
		wantFound bool
	}{
		{"nil metadata", nil, []string{MetaPrompt}, "", false},
		{"key found", map[string]string{MetaPrompt: "WAP>"}, []string{MetaPrompt}, "WAP>", true},
		{"empty value skipped", map[string]string{MetaPrompt: ""}, []string{MetaPrompt}, "", false},
		{"fallback key found", map[string]string{"b": "2"}, []string{"a", "b"}, "2", true},
		{"first key wins", map[string]string{"a": "1", "b": "2"}, []string{"a", "b"}, "1", true},
		{"no keys provided", map[string]string{"a": "1"}, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := MetadataString(tt.metadata, tt.keys...)
			assert.Equal(t, tt.wantValue, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestMetadataDuration(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]string
		want      time.Duration
		wantFound bool
	}{
		{"nil metadata", nil, 0, false},
		{"valid duration", map[string]string{MetaCommandTimeout: "30s"}, 30 * time.Second, true},
		{"invalid duration", map[string]string{MetaCommandTimeout: "soon"}, 0, false},
		{"negative duration", map[string]string{MetaCommandTimeout: "-1s"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := MetadataDuration(tt.metadata, MetaCommandTimeout)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}
