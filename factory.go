package southbound

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/nanoncore/cpe-southbound/drivers/cli"
	"github.com/nanoncore/cpe-southbound/drivers/mock"
	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
	"github.com/nanoncore/cpe-southbound/vendors/generic"
	"github.com/nanoncore/cpe-southbound/vendors/huawei"
	"github.com/nanoncore/cpe-southbound/vendors/mikrotik"
	"github.com/nanoncore/cpe-southbound/vendors/zte"
)

// FamilyProfile defines how each device family is reached and probed
type FamilyProfile struct {
	// Dialects are tried in order when probing; the first one also
	// provides the logout command
	Dialects []common.Dialect

	// PagerCommand disables paging after login
	PagerCommand string

	// LoginSuffix is appended to the username
	LoginSuffix string

	// Thresholds is the acceptable optical window
	Thresholds types.PowerThresholds
}

// ProfileMatrix defines the family defaults
var ProfileMatrix = map[Family]FamilyProfile{
	FamilyGPON: {
		Dialects:     []common.Dialect{huawei.Dialect, zte.Dialect, generic.Dialect},
		PagerCommand: huawei.Dialect.PagerCommand,
		Thresholds:   types.GPONThresholds,
	},
	FamilyEPON: {
		Dialects:     []common.Dialect{zte.Dialect, huawei.Dialect, generic.Dialect},
		PagerCommand: zte.Dialect.PagerCommand,
		Thresholds:   types.EPONThresholds,
	},
	FamilyMikrotik: {
		Dialects:    []common.Dialect{mikrotik.Dialect, generic.Dialect},
		LoginSuffix: mikrotik.LoginSuffix,
		Thresholds:  types.GPONThresholds,
	},
	FamilyMock: {
		Dialects:   []common.Dialect{huawei.Dialect, zte.Dialect, mikrotik.Dialect, generic.Dialect},
		Thresholds: types.GPONThresholds,
	},
}

// Commands returns the default probe candidates of the family
func (p FamilyProfile) Commands() types.CommandTable {
	return types.MergeCommandTables(common.CommandTables(p.Dialects...)...)
}

// DialectNames returns the dialect names in probe order
func (p FamilyProfile) DialectNames() []string {
	names := make([]string, len(p.Dialects))
	for i, d := range p.Dialects {
		names[i] = d.Name
	}
	return names
}

// SessionProfile builds the CLI conventions used by the connection manager.
// The shell prompt accepts any of the family's dialect prompts as well as
// the generic default.
func (p FamilyProfile) SessionProfile() cli.SessionProfile {
	prompts := make([]*regexp.Regexp, 0, len(p.Dialects)+1)
	for _, d := range p.Dialects {
		if d.ShellPrompt != nil {
			prompts = append(prompts, d.ShellPrompt)
		}
	}
	prompts = append(prompts, cli.DefaultPromptPattern)

	var logout string
	if len(p.Dialects) > 0 {
		logout = p.Dialects[0].LogoutCommand
	}

	return cli.SessionProfile{
		Prompts:       cli.Prompts{Shell: cli.AnyOf(prompts...)},
		PagerCommand:  p.PagerCommand,
		LogoutCommand: logout,
		LoginSuffix:   p.LoginSuffix,
	}
}

// GetFamilyProfile returns the profile for a family
func GetFamilyProfile(family Family) (FamilyProfile, bool) {
	p, ok := ProfileMatrix[family]
	return p, ok
}

// GetSupportedFamilies returns all supported families, sorted
func GetSupportedFamilies() []Family {
	families := make([]Family, 0, len(ProfileMatrix))
	for f := range ProfileMatrix {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// newSession creates the connection manager for desc based on its family
func newSession(desc *ConnectionDescriptor, profile FamilyProfile, o *clientOptions) (Session, error) {
	// Mock family uses the simulator regardless of transport
	if desc.Family == FamilyMock {
		return mock.NewDriver(desc)
	}

	opts := []cli.Option{
		cli.WithLogger(o.logger),
		cli.WithProfile(profile.SessionProfile()),
		cli.WithPrompts(o.prompts),
		cli.WithConnectTimeout(o.connectTimeout),
		cli.WithCommandTimeout(o.commandTimeout),
		cli.WithMaxConsecutiveTimeouts(o.maxTimeouts),
	}
	if o.sessionObserver != nil {
		opts = append(opts, cli.WithObserver(o.sessionObserver))
	}

	d, err := cli.NewDriver(desc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cli driver: %w", err)
	}
	return d, nil
}
