package shipping

import (
	"sort"

	"github.com/shopspring/decimal"
)

// region buckets drive the delivery-window estimate when a tier does not
// supply one explicitly.
type region int

const (
	regionDomestic region = iota
	regionNearby
	regionOverseas
)

func (r region) deliveryDays() int {
	switch r {
	case regionDomestic:
		return 3
	case regionNearby:
		return 7
	default:
		return 14
	}
}

// defaultDeliveryDays is the estimate attached to the default tier, where
// the destination is unknown.
const defaultDeliveryDays = 21

type tableEntry struct {
	cost   decimal.Decimal
	region region
}

func entry(cost string, r region) tableEntry {
	return tableEntry{cost: decimal.RequireFromString(cost), region: r}
}

// rateTable is the static per-country fallback, keyed by normalized
// country name. Costs are in USD.
var rateTable = map[string]tableEntry{
	"bangladesh": entry("6.50", regionDomestic),

	"india":       entry("12", regionNearby),
	"pakistan":    entry("12", regionNearby),
	"nepal":       entry("12", regionNearby),
	"sri lanka":   entry("12", regionNearby),
	"bhutan":      entry("12", regionNearby),
	"maldives":    entry("14", regionNearby),
	"myanmar":     entry("14", regionNearby),
	"thailand":    entry("15", regionNearby),
	"malaysia":    entry("15", regionNearby),
	"singapore":   entry("15", regionNearby),
	"indonesia":   entry("16", regionNearby),
	"vietnam":     entry("16", regionNearby),
	"philippines": entry("16", regionNearby),
	"china":       entry("15", regionNearby),
	"hong kong":   entry("15", regionNearby),
	"taiwan":      entry("15", regionNearby),
	"japan":       entry("18", regionNearby),
	"south korea": entry("18", regionNearby),

	"united arab emirates": entry("18", regionNearby),
	"saudi arabia":         entry("18", regionNearby),
	"qatar":                entry("18", regionNearby),
	"kuwait":               entry("18", regionNearby),
	"oman":                 entry("18", regionNearby),
	"bahrain":              entry("18", regionNearby),

	"united states":  entry("22", regionOverseas),
	"canada":         entry("22", regionOverseas),
	"mexico":         entry("24", regionOverseas),
	"brazil":         entry("26", regionOverseas),
	"united kingdom": entry("20", regionOverseas),
	"ireland":        entry("20", regionOverseas),
	"germany":        entry("20", regionOverseas),
	"france":         entry("20", regionOverseas),
	"italy":          entry("20", regionOverseas),
	"spain":          entry("20", regionOverseas),
	"portugal":       entry("20", regionOverseas),
	"netherlands":    entry("20", regionOverseas),
	"belgium":        entry("20", regionOverseas),
	"switzerland":    entry("21", regionOverseas),
	"austria":        entry("21", regionOverseas),
	"sweden":         entry("21", regionOverseas),
	"norway":         entry("21", regionOverseas),
	"denmark":        entry("21", regionOverseas),
	"finland":        entry("21", regionOverseas),
	"poland":         entry("21", regionOverseas),
	"turkey":         entry("19", regionOverseas),
	"russia":         entry("23", regionOverseas),
	"australia":      entry("24", regionOverseas),
	"new zealand":    entry("24", regionOverseas),
	"south africa":   entry("26", regionOverseas),
	"egypt":          entry("22", regionOverseas),
	"nigeria":        entry("26", regionOverseas),
	"kenya":          entry("26", regionOverseas),
	"argentina":      entry("26", regionOverseas),
	"chile":          entry("26", regionOverseas),
	"colombia":       entry("26", regionOverseas),
}

// countryAliases maps common short forms to canonical table keys.
var countryAliases = map[string]string{
	"usa":                      "united states",
	"us":                       "united states",
	"united states of america": "united states",
	"america":                  "united states",
	"uk":                       "united kingdom",
	"britain":                  "united kingdom",
	"great britain":            "united kingdom",
	"england":                  "united kingdom",
	"uae":                      "united arab emirates",
	"emirates":                 "united arab emirates",
	"korea":                    "south korea",
	"republic of korea":        "south korea",
	"holland":                  "netherlands",
}

// knownNames lists every name the address scanner may match, longest first
// so "united arab emirates" wins over "emirates" and scanning order stays
// deterministic.
var knownNames = func() []string {
	names := make([]string, 0, len(rateTable)+len(countryAliases))
	for name := range rateTable {
		names = append(names, name)
	}
	for alias := range countryAliases {
		names = append(names, alias)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// canonical resolves aliases to table keys. The input must be normalized.
func canonical(name string) string {
	if c, ok := countryAliases[name]; ok {
		return c
	}
	return name
}
