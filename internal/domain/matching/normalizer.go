// Package matching holds the pure heuristics behind bundle recommendations:
// service name normalization, monthly cost normalization and bundle matching.
// Nothing here performs I/O or returns errors; every function is safe for
// concurrent use.
package matching

import "strings"

// Service categories used by the alias table.
const (
	CategoryVideo = "video"
	CategoryMusic = "music"
)

type serviceAliases struct {
	canonical string
	category  string
	aliases   []string
}

// aliasTable is the known set of equivalent service names. Order matters:
// lookups are first-match-wins in table order. Short aliases such as "Prime"
// can match unrelated names; that is an accepted limitation of the heuristic.
var aliasTable = [...]serviceAliases{
	{"Netflix", CategoryVideo, []string{"Netflix"}},
	{"Disney+ Hotstar", CategoryVideo, []string{"Disney+ Hotstar", "Hotstar", "JioHotstar", "Jio Hotstar", "Disney Plus Hotstar", "Disney+"}},
	{"Amazon Prime Video", CategoryVideo, []string{"Amazon Prime Video", "Prime Video", "Amazon Prime", "Prime"}},
	{"SonyLIV", CategoryVideo, []string{"SonyLIV", "Sony LIV"}},
	{"ZEE5", CategoryVideo, []string{"ZEE5", "Zee 5"}},
	{"JioCinema", CategoryVideo, []string{"JioCinema", "Jio Cinema"}},
	{"Spotify", CategoryMusic, []string{"Spotify"}},
	{"YouTube Premium", CategoryVideo, []string{"YouTube Premium", "YouTube Music", "YT Premium"}},
	{"Apple Music", CategoryMusic, []string{"Apple Music"}},
	{"Apple TV+", CategoryVideo, []string{"Apple TV+", "Apple TV Plus", "Apple TV"}},
	{"JioSaavn", CategoryMusic, []string{"JioSaavn", "Jio Saavn", "Saavn"}},
	{"Gaana", CategoryMusic, []string{"Gaana"}},
	{"Wynk Music", CategoryMusic, []string{"Wynk Music", "Wynk"}},
	{"Voot", CategoryVideo, []string{"Voot"}},
	{"ALTBalaji", CategoryVideo, []string{"ALTBalaji", "ALT Balaji", "ALTT"}},
	{"Sun NXT", CategoryVideo, []string{"Sun NXT", "SunNXT"}},
	{"Aha", CategoryVideo, []string{"Aha"}},
	{"Eros Now", CategoryVideo, []string{"Eros Now", "ErosNow"}},
	{"Hoichoi", CategoryVideo, []string{"Hoichoi"}},
	{"Lionsgate Play", CategoryVideo, []string{"Lionsgate Play", "Lionsgate"}},
	{"Discovery+", CategoryVideo, []string{"Discovery+", "Discovery Plus"}},
	{"MX Player", CategoryVideo, []string{"MX Player", "MX Gold"}},
}

// ServiceInfo is the resolved identity of a free-text service name.
type ServiceInfo struct {
	Canonical string
	Category  string
	Names     []string
}

// NormalizeServiceName returns every name considered equivalent to name:
// the canonical name followed by its aliases, or just name when it is not
// a known service. The result is never empty.
func NormalizeServiceName(name string) []string {
	if info, ok := LookupService(name); ok {
		return info.Names
	}
	return []string{name}
}

// LookupService resolves name against the alias table.
func LookupService(name string) (ServiceInfo, bool) {
	needle := fold(name)
	if needle == "" {
		return ServiceInfo{}, false
	}
	for i := range aliasTable {
		entry := &aliasTable[i]
		for _, alias := range entry.aliases {
			if containsEither(needle, fold(alias)) {
				names := make([]string, 0, len(entry.aliases)+1)
				names = append(names, entry.canonical)
				names = append(names, entry.aliases...)
				return ServiceInfo{Canonical: entry.canonical, Category: entry.category, Names: names}, true
			}
		}
	}
	return ServiceInfo{}, false
}

// CanonicalServices lists canonical names in table order.
func CanonicalServices() []string {
	out := make([]string, 0, len(aliasTable))
	for i := range aliasTable {
		out = append(out, aliasTable[i].canonical)
	}
	return out
}

// ServiceNamesMatch reports whether any name in a is equivalent to any name
// in b under the bidirectional, case-insensitive containment test.
func ServiceNamesMatch(a, b []string) bool {
	for _, x := range a {
		fx := fold(x)
		if fx == "" {
			continue
		}
		for _, y := range b {
			if containsEither(fx, fold(y)) {
				return true
			}
		}
	}
	return false
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// fold lower-cases and collapses whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
