package common

import (
	"regexp"

	"github.com/nanoncore/cpe-southbound/types"
)

// Dialect is the set of command strings and CLI conventions of one
// manufacturer's firmware. It is data only; parsing is shared.
type Dialect struct {
	// Name identifies the dialect in logs and metrics
	Name string

	// Commands are the candidate probe commands, most distinctive first
	Commands types.CommandTable

	// ShellPrompt matches the end of output when the device waits for input
	ShellPrompt *regexp.Regexp

	// PagerCommand disables paging after login, empty when not needed
	PagerCommand string

	// LogoutCommand ends the CLI session
	LogoutCommand string

	// LoginSuffix is appended to the username at the login prompt
	LoginSuffix string
}

// CommandTables returns the command tables of dialects in order
func CommandTables(dialects ...Dialect) []types.CommandTable {
	tables := make([]types.CommandTable, 0, len(dialects))
	for _, d := range dialects {
		tables = append(tables, d.Commands)
	}
	return tables
}
