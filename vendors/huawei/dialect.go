// Package huawei holds the CLI dialect of Huawei EchoLife ONTs
// (HG8xxx, EG8xxx, HS8xxx) as reached over telnet.
package huawei

import (
	"regexp"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// ShellPrompt matches "WAP>", "SU_WAP>", "<HG8245H>" and "[HG8245H]"
var ShellPrompt = regexp.MustCompile(`(?:<[\w\-]+>|\[[\w\-~]+\]|[\w\-]+[>#])[ \t]*$`)

// Dialect is the Huawei ONT command set
var Dialect = common.Dialect{
	Name: "huawei",
	Commands: types.CommandTable{
		OpticalPower: []string{
			"display optic",
			"display ont optic info",
			"display ont optical-info",
		},
		WiFi: []string{
			"display wlan basic 1",
			"display wlan config",
			"display wifi info",
		},
		Traffic: []string{
			"display ont traffic",
			"display wan statistics",
			"display interface statistics",
		},
	},
	ShellPrompt:   ShellPrompt,
	PagerCommand:  "screen-length 0 temporary",
	LogoutCommand: "quit",
}
