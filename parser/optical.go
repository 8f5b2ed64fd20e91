package parser

import (
	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

const (
	dbmNumber = `([-+]?\d+(?:\.\d+)?)`
	dbmSep    = `[ \t]*(?:\(?[ \t]*dbm[ \t]*\)?)?[ \t]*[:=]?[ \t]*`
	wordStart = `(?:^|[^a-zA-Z])`

	// mwThenDbm is "0.011 mW (-19.5 dBm)": the milliwatt value is skipped
	mwThenDbm = `[ \t]*[:=]?[ \t]*[-+]?\d+(?:\.\d+)?[ \t]*mw[ \t]*[,/]?[ \t]*\(?[ \t]*` + dbmNumber + `[ \t]*dbm`
)

// RxPowerMatchers finds the ONT receive level. A dBm value given next to
// a milliwatt value is preferred over the milliwatt one.
var RxPowerMatchers = MatcherTable{
	mustMatcher("rx_mw_dbm", `(?im)`+wordStart+`rx[ \t_-]*(?:optical[ \t_-]*)?power`+mwThenDbm),
	mustMatcher("rx_power", `(?im)`+wordStart+`rx[ \t_-]*(?:optical[ \t_-]*)?power`+dbmSep+dbmNumber),
	mustMatcher("receive_power", `(?im)`+wordStart+`receiv(?:e|ed|ing)[ \t_-]*(?:optical[ \t_-]*)?power`+dbmSep+dbmNumber),
	mustMatcher("olt_rx", `(?im)`+wordStart+`olt[ \t_-]*rx(?:[ \t_-]*ont)?(?:[ \t_-]*optical)?(?:[ \t_-]*power)?`+dbmSep+dbmNumber),
}

// TxPowerMatchers finds the ONT transmit level.
var TxPowerMatchers = MatcherTable{
	mustMatcher("tx_mw_dbm", `(?im)`+wordStart+`tx[ \t_-]*(?:optical[ \t_-]*)?power`+mwThenDbm),
	mustMatcher("tx_power", `(?im)`+wordStart+`tx[ \t_-]*(?:optical[ \t_-]*)?power`+dbmSep+dbmNumber),
	mustMatcher("transmit_power", `(?im)`+wordStart+`transmi(?:t|tted|tting)[ \t_-]*(?:optical[ \t_-]*)?power`+dbmSep+dbmNumber),
	mustMatcher("onu_tx", `(?im)`+wordStart+`onu[ \t_-]*tx(?:[ \t_-]*optical)?(?:[ \t_-]*power)?`+dbmSep+dbmNumber),
}

// ParseOpticalPower extracts rx/tx power in dBm. The two lookups are
// independent; either may be nil.
func ParseOpticalPower(output string) types.OpticalPowerReading {
	var reading types.OpticalPowerReading
	text := common.CleanOutput(output)

	if raw, _, ok := RxPowerMatchers.First(text); ok {
		if v, ok := common.ParseSignedFloat(raw); ok {
			reading.RxPowerDBm = &v
		}
	}
	if raw, _, ok := TxPowerMatchers.First(text); ok {
		if v, ok := common.ParseSignedFloat(raw); ok {
			reading.TxPowerDBm = &v
		}
	}
	return reading
}
