package types

// CommandTable lists candidate CLI commands per capability, most
// distinctive first. It is plain data so it can be assembled from vendor
// dialects and overridden from configuration.
type CommandTable struct {
	OpticalPower []string `yaml:"optical_power,omitempty" json:"optical_power,omitempty"`
	WiFi         []string `yaml:"wifi,omitempty" json:"wifi,omitempty"`
	Traffic      []string `yaml:"traffic,omitempty" json:"traffic,omitempty"`
}

// For returns the candidates for a capability
func (t CommandTable) For(c Capability) []string {
	switch c {
	case CapabilityOpticalPower:
		return t.OpticalPower
	case CapabilityWiFi:
		return t.WiFi
	case CapabilityTraffic:
		return t.Traffic
	default:
		return nil
	}
}

// Override replaces each capability list that is non-empty in o
func (t CommandTable) Override(o CommandTable) CommandTable {
	if len(o.OpticalPower) > 0 {
		t.OpticalPower = append([]string(nil), o.OpticalPower...)
	}
	if len(o.WiFi) > 0 {
		t.WiFi = append([]string(nil), o.WiFi...)
	}
	if len(o.Traffic) > 0 {
		t.Traffic = append([]string(nil), o.Traffic...)
	}
	return t
}

// IsZero reports whether no capability has candidates
func (t CommandTable) IsZero() bool {
	return len(t.OpticalPower) == 0 && len(t.WiFi) == 0 && len(t.Traffic) == 0
}

// MergeCommandTables concatenates tables in order, dropping duplicates so a
// command shared by two dialects is only tried once, at its first position.
func MergeCommandTables(tables ...CommandTable) CommandTable {
	var out CommandTable
	for _, t := range tables {
		out.OpticalPower = appendUnique(out.OpticalPower, t.OpticalPower...)
		out.WiFi = appendUnique(out.WiFi, t.WiFi...)
		out.Traffic = appendUnique(out.Traffic, t.Traffic...)
	}
	return out
}

func appendUnique(dst []string, cmds ...string) []string {
	for _, cmd := range cmds {
		if cmd == "" {
			continue
		}
		seen := false
		for _, existing := range dst {
			if existing == cmd {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, cmd)
		}
	}
	return dst
}
