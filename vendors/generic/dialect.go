// Package generic holds commands understood by unbranded ONTs and
// busybox/OpenWrt based CPEs. It is tried last for every family.
package generic

import (
	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// Dialect is the fallback command set. ShellPrompt is left nil so the
// driver's default prompt pattern applies.
var Dialect = common.Dialect{
	Name: "generic",
	Commands: types.CommandTable{
		OpticalPower: []string{
			"show optical-power",
			"show pon optical-info",
			"show transceiver",
		},
		WiFi: []string{
			"uci show wireless",
			"iwconfig",
			"show wlan",
			"show wifi",
		},
		Traffic: []string{
			"ifconfig",
			"show interface",
			"show statistics",
		},
	},
	PagerCommand:  "terminal length 0",
	LogoutCommand: "exit",
}
