package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTrafficCounters(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantIn  uint64
		wantOut uint64
	}{
		{
			name:    "grouped digits",
			output:  "RX 1,234,567 bytes / TX 890 bytes",
			wantIn:  1234567,
			wantOut: 890,
		},
		{
			name: "legacy ifconfig",
			output: `eth0      Link encap:Ethernet  HWaddr 00:11:22:33:44:55
          RX packets:1200 errors:0 dropped:0 overruns:0 frame:0
          TX packets:800 errors:0 dropped:0 overruns:0 carrier:0
          RX bytes:345678 (337.5 KiB)  TX bytes:123456 (120.5 KiB)`,
			wantIn:  345678,
			wantOut: 123456,
		},
		{
			name: "iproute ifconfig",
			output: `eth0: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500
        RX packets 1200  bytes 345678 (337.5 KiB)
        TX packets 800  bytes 123456 (120.5 KiB)`,
			wantIn:  345678,
			wantOut: 123456,
		},
		{
			name:    "RouterOS stats with space grouping",
			output:  "        name: ether1\n    rx-bytes: 1 234 567\n    tx-bytes: 89 012",
			wantIn:  1234567,
			wantOut: 89012,
		},
		{
			name:    "RouterOS stats-detail",
			output:  ` 0 R  name="ether1" rx-byte=123456 tx-byte=7890 rx-packet=10 tx-packet=5`,
			wantIn:  123456,
			wantOut: 7890,
		},
		{
			name:    "Huawei upstream and downstream",
			output:  "Upstream traffic   : 123456 bytes\nDownstream traffic : 654321 bytes",
			wantIn:  654321,
			wantOut: 123456,
		},
		{
			name:    "input and output",
			output:  "Input: 5,000 bytes\nOutput: 6,000 bytes",
			wantIn:  5000,
			wantOut: 6000,
		},
		{
			name:   "only received",
			output: "Received bytes: 42",
			wantIn: 42,
		},
		{
			name:   "no counters",
			output: "% Invalid input detected at '^' marker.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrafficCounters(tt.output)
			assert.Equal(t, tt.wantIn, got.BytesIn)
			assert.Equal(t, tt.wantOut, got.BytesOut)
			assert.Zero(t, got.PacketsIn)
			assert.Zero(t, got.PacketsOut)
			assert.Equal(t, tt.wantIn > 0 || tt.wantOut > 0, got.HasData())
		})
	}
}
