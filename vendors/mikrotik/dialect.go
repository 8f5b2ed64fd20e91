// Package mikrotik holds the RouterOS console dialect. Commands carry
// "without-paging" so no pager command is needed after login.
package mikrotik

import (
	"regexp"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// ShellPrompt matches "[admin@MikroTik] > " and "[admin@gw] /interface> "
var ShellPrompt = regexp.MustCompile(`\[[^\]\r\n]+\][ \t]*(?:/[\w/\- ]*)?[ \t]*>[ \t]*$`)

// LoginSuffix disables colors and terminal auto-detection ("admin+ct")
const LoginSuffix = "+ct"

// Dialect is the RouterOS command set
var Dialect = common.Dialect{
	Name: "mikrotik",
	Commands: types.CommandTable{
		OpticalPower: []string{
			"/interface ethernet monitor [find where name~\"sfp\"] once",
			"/interface ethernet monitor sfp1 once",
			"/interface ethernet monitor sfp-sfpplus1 once",
		},
		WiFi: []string{
			"/interface wifi print detail without-paging",
			"/interface wireless print detail without-paging",
			"/interface wireless security-profiles print detail without-paging",
		},
		Traffic: []string{
			"/interface print stats-detail without-paging where default-name=ether1",
			"/interface ethernet print stats without-paging",
		},
	},
	ShellPrompt:   ShellPrompt,
	LogoutCommand: "/quit",
	LoginSuffix:   LoginSuffix,
}
