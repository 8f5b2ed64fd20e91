package parser

import (
	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

const groupedDigits = `(\d[\d,]*)`

// BytesInMatchers finds the received byte counter. Dialect-specific layouts
// come first because the generic "<marker> ... N bytes" form would read the
// packet count out of a "RX packets 12 bytes 3456" line.
var BytesInMatchers = MatcherTable{
	mustMatcher("ifconfig_packets_bytes", `(?im)\brx[ \t]+packets[ \t:]+\d+[ \t]+bytes[ \t:]+`+groupedDigits),
	mustMatcher("ifconfig_bytes", `(?im)\b(?:rx|received?)[ \t]*bytes[ \t]*[:=][ \t]*`+groupedDigits),
	mustMatcher("routeros_stats", `(?im)(?:^|[^\w-])rx-bytes?[ \t]*[:=][ \t]*(\d[\d, ]*)`),
	mustMatcher("marker_before_bytes", `(?im)\b(?:rx|receive|received|in|input)\b[^\d\n]*?`+groupedDigits+`[ \t]*bytes`),
	mustMatcher("downstream_bytes", `(?im)\bdownstream\b[^\d\n]*?`+groupedDigits+`[ \t]*bytes`),
}

// BytesOutMatchers finds the transmitted byte counter.
var BytesOutMatchers = MatcherTable{
	mustMatcher("ifconfig_packets_bytes", `(?im)\btx[ \t]+packets[ \t:]+\d+[ \t]+bytes[ \t:]+`+groupedDigits),
	mustMatcher("ifconfig_bytes", `(?im)\b(?:tx|sent|transmitted)[ \t]*bytes[ \t]*[:=][ \t]*`+groupedDigits),
	mustMatcher("routeros_stats", `(?im)(?:^|[^\w-])tx-bytes?[ \t]*[:=][ \t]*(\d[\d, ]*)`),
	mustMatcher("marker_before_bytes", `(?im)\b(?:tx|transmit|transmitted|out|output)\b[^\d\n]*?`+groupedDigits+`[ \t]*bytes`),
	mustMatcher("upstream_bytes", `(?im)\bupstream\b[^\d\n]*?`+groupedDigits+`[ \t]*bytes`),
}

// ParseTrafficCounters extracts byte counters, stripping thousands
// separators. Packet counters are part of the record but no dialect we
// scrape reports them reliably, so they stay zero.
func ParseTrafficCounters(output string) types.TrafficCounters {
	var counters types.TrafficCounters
	text := common.CleanOutput(output)

	if raw, _, ok := BytesInMatchers.First(text); ok {
		if v, ok := common.ParseGroupedUint(raw); ok {
			counters.BytesIn = v
		}
	}
	if raw, _, ok := BytesOutMatchers.First(text); ok {
		if v, ok := common.ParseGroupedUint(raw); ok {
			counters.BytesOut = v
		}
	}
	return counters
}
