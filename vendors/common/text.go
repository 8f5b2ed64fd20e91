package common

import (
	"regexp"
	"strconv"
	"strings"
)

// ansiRegex matches ANSI escape sequences (colors, cursor movement, etc.)
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// pagerResidueRegex matches what is left on a line after a "--More--" pager
// prompt has been answered and erased by the device.
var pagerResidueRegex = regexp.MustCompile(`(?i)-{2,}\s*more\b[^\n]*?-{2,}`)

// StripANSI removes ANSI escape codes from a string.
// Useful for parsing CLI output that may contain terminal formatting.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// applyBackspaces replays backspace characters the way a terminal would.
func applyBackspaces(line string) string {
	if !strings.ContainsRune(line, '\b') {
		return line
	}
	out := make([]rune, 0, len(line))
	for _, r := range line {
		if r == '\b' {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// CleanOutput normalises raw CLI output for parsing: ANSI codes, carriage
// returns, backspace erasures and pager leftovers are removed, line endings
// become "\n".
func CleanOutput(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		// A bare \r rewinds the cursor; keep what was drawn last.
		if i := strings.LastIndexByte(strings.TrimRight(line, "\r"), '\r'); i >= 0 {
			line = line[i+1:]
		}
		line = strings.TrimRight(applyBackspaces(line), "\r")
		line = pagerResidueRegex.ReplaceAllString(line, "")
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}

// ParseGroupedUint parses an unsigned integer that may contain thousands
// separators ("1,234,567", "1 234 567", "1_234").
func ParseGroupedUint(s string) (uint64, bool) {
	s = strings.NewReplacer(",", "", "_", "", " ", "", "'", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseSignedFloat parses a signed decimal like "-14.5" or "+2.31".
func ParseSignedFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
