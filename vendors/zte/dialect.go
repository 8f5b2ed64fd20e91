// Package zte holds the CLI dialect of ZTE ZXHN ONTs (F6xx, F4xx)
package zte

import (
	"regexp"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// ShellPrompt matches "ZXHN F660>", "F601#" and the bracketed "<ZXAN>" form
var ShellPrompt = regexp.MustCompile(`(?:<[\w\-]+>|\[[\w\-~]+\]|[\w\-]+[ \t]?[\w\-]*[>#])[ \t]*$`)

// Dialect is the ZTE ONT command set
var Dialect = common.Dialect{
	Name: "zte",
	Commands: types.CommandTable{
		OpticalPower: []string{
			"show pon optical-info",
			"show gpon onu optical-info",
			"show epon onu optical-info",
		},
		WiFi: []string{
			"show wlan basic",
			"show wlan ssid 1",
			"show wireless",
		},
		Traffic: []string{
			"show interface statistics",
			"show wan statistics",
			"show pon statistics",
		},
	},
	ShellPrompt:   ShellPrompt,
	PagerCommand:  "screen-length 0 temporary",
	LogoutCommand: "exit",
}
