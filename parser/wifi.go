package parser

import (
	"regexp"
	"strings"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// keyStart keeps "hide-ssid" or "wpa2-psk" from being read as a key of its own
const keyStart = `(?:^|[^\w-])`

// SSIDMatchers: quoted values first, then "ssid: value", then a bare
// "ssid value" running to the end of the line or a quote.
var SSIDMatchers = MatcherTable{
	mustMatcher("ssid_double_quoted", `(?im)`+keyStart+`e?ssid(?:[ \t_-]*name)?[ \t]*\d*[ \t]*[:=]?[ \t]*"([^"\r\n]*)"`),
	mustMatcher("ssid_single_quoted", `(?im)`+keyStart+`e?ssid(?:[ \t_-]*name)?[ \t]*\d*[ \t]*[:=]?[ \t]*'([^'\r\n]*)'`),
	mustMatcher("ssid_separator", `(?im)`+keyStart+`e?ssid(?:[ \t_-]*name)?[ \t]*\d*[ \t]*[:=][ \t]*([^"'\s][^"\r\n]*)`),
	mustMatcher("ssid_bare", `(?im)`+keyStart+`ssid[ \t]+([^"'\r\n:=]+)(?:["']|[ \t]*$)`),
}

// PassphraseMatchers: RouterOS pre-shared keys, then UCI style quoted keys,
// then password/passphrase/psk keys, then a bare "key".
var PassphraseMatchers = MatcherTable{
	mustMatcher("pre_shared_key", `(?im)(?:^|[^\w])(?:wpa2?-)?pre-?shared-?key[ \t]*[:=][ \t]*"?([^"\r\n]+)`),
	mustMatcher("single_quoted", `(?im)`+keyStart+`(?:key|passphrase|password)[ \t]*[:=]?[ \t]*'([^'\r\n]*)'`),
	mustMatcher("password", `(?im)`+keyStart+`(?:wpa_)?(?:passphrase|password|psk|wpa[ \t_-]*key)(?:[ \t_-]*(?:key|value))?[ \t]*\d*[ \t]*[:=][ \t]*"?([^"\r\n]+)`),
	mustMatcher("key", `(?im)`+keyStart+`key(?:[ \t_-]*passphrase)?[ \t]*\d*[ \t]*[:=][ \t]*"?([^"\r\n]+)`),
}

var wifiEnabledRegex = regexp.MustCompile(`(?i)\b(?:enabled|enable[ \t]*[:=][ \t]*(?:1|yes|on|true)|status[ \t]*[:=][ \t]*(?:up|on|enabled?)|running|radio[ \t]*[:=]?[ \t]*on)\b`)

// ParseWiFiSettings extracts SSID, passphrase and radio status.
//
// Enabled follows the default-open rule: it is false only when the output
// contains "disabled" (any case). State is stricter and reports unknown
// when neither a disabled nor an explicit enabled indicator is present.
func ParseWiFiSettings(output string) types.WiFiConfiguration {
	text := common.CleanOutput(output)
	cfg := types.WiFiConfiguration{
		Enabled: true,
		State:   types.WiFiStateUnknown,
	}

	if ssid, _, ok := SSIDMatchers.First(text); ok {
		cfg.SSID = ssid
	}
	if key, _, ok := PassphraseMatchers.First(text); ok {
		cfg.Passphrase = key
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "disabled"):
		cfg.Enabled = false
		cfg.State = types.WiFiStateDisabled
	case wifiEnabledRegex.MatchString(text):
		cfg.State = types.WiFiStateEnabled
	}
	return cfg
}
