package application

import (
	"regexp"
	"strings"
)

// supportedRegions maps the Chinese region names users type to App Store
// country codes. Bare two-letter codes are accepted directly.
var supportedRegions = map[string]string{
	"美国":    "us",
	"中国":    "cn",
	"香港":    "hk",
	"台湾":    "tw",
	"澳门":    "mo",
	"日本":    "jp",
	"韩国":    "kr",
	"英国":    "gb",
	"法国":    "fr",
	"德国":    "de",
	"意大利":   "it",
	"西班牙":   "es",
	"荷兰":    "nl",
	"瑞士":    "ch",
	"瑞典":    "se",
	"挪威":    "no",
	"俄罗斯":   "ru",
	"土耳其":   "tr",
	"加拿大":   "ca",
	"墨西哥":   "mx",
	"巴西":    "br",
	"澳大利亚":  "au",
	"新西兰":   "nz",
	"新加坡":   "sg",
	"马来西亚":  "my",
	"泰国":    "th",
	"越南":    "vn",
	"菲律宾":   "ph",
	"印度":    "in",
	"印度尼西亚": "id",
	"阿联酋":   "ae",
	"南非":    "za",
	"尼日利亚":  "ng",
}

// dsfByCode maps country codes to the storefront identifiers used by the
// store-switch deep links.
var dsfByCode = map[string]string{
	"us": "143441",
	"cn": "143465",
	"hk": "143463",
	"tw": "143470",
	"mo": "143515",
	"jp": "143462",
	"kr": "143466",
	"gb": "143444",
	"fr": "143442",
	"de": "143443",
	"it": "143450",
	"es": "143454",
	"nl": "143452",
	"ch": "143459",
	"se": "143456",
	"no": "143457",
	"ru": "143469",
	"tr": "143480",
	"ca": "143455",
	"mx": "143468",
	"br": "143503",
	"au": "143460",
	"nz": "143461",
	"sg": "143464",
	"my": "143473",
	"th": "143475",
	"vn": "143471",
	"ph": "143474",
	"in": "143467",
	"id": "143476",
	"ae": "143481",
	"za": "143472",
	"ng": "143561",
}

var bareCountryCode = regexp.MustCompile(`^[a-z]{2}$`)

// CountryCode resolves a region identifier (Chinese name or bare code)
// to its country code. ok=false for anything unsupported.
func CountryCode(identifier string) (string, bool) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return "", false
	}
	if key := strings.ToLower(trimmed); bareCountryCode.MatchString(key) {
		return key, true
	}
	code, ok := supportedRegions[trimmed]
	return code, ok
}

// IsSupportedRegion is the semantic-validation hook routes use to turn a
// syntactic match with an unknown region into a non-match.
func IsSupportedRegion(identifier string) bool {
	_, ok := CountryCode(identifier)
	return ok
}

// RegionName returns the display name for a country code, falling back
// to the code itself for bare-code input.
func RegionName(code string) string {
	for name, c := range supportedRegions {
		if c == code {
			return name
		}
	}
	return code
}

// SplitTailRegion peels a trailing region name off a free-text app query
// ("Minecraft日本" -> "Minecraft", "日本"). ok=false when no region name
// trails the query or the query would become empty.
func SplitTailRegion(query string) (app, region string, ok bool) {
	for name := range supportedRegions {
		if strings.HasSuffix(query, name) && len(query) > len(name) {
			return strings.TrimSpace(strings.TrimSuffix(query, name)), name, true
		}
	}
	return query, "", false
}
