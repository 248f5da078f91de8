// Package market fetches latest commodity quotes from the Yahoo Finance
// chart endpoint.
package market

import "strings"

// Commodity is one entry in the fixed catalog: a display name and the
// futures ticker it resolves to.
type Commodity struct {
	Name   string
	Symbol string
}

// Catalog is the closed set of supported commodities, in display order.
var Catalog = []Commodity{
	{Name: "Gold", Symbol: "GC=F"},
	{Name: "Silver", Symbol: "SI=F"},
	{Name: "Copper", Symbol: "HG=F"},
	{Name: "Platinum", Symbol: "PL=F"},
	{Name: "Palladium", Symbol: "PA=F"},
	{Name: "Crude Oil", Symbol: "CL=F"},
	{Name: "Brent Crude", Symbol: "BZ=F"},
	{Name: "Natural Gas", Symbol: "NG=F"},
}

// Names returns the catalog display names in order.
func Names() []string {
	names := make([]string, len(Catalog))
	for i, c := range Catalog {
		names[i] = c.Name
	}
	return names
}

// Resolve maps a user-supplied commodity name to a catalog entry.
// Matching is case-insensitive on the display name.
func Resolve(name string) (Commodity, bool) {
	trimmed := strings.TrimSpace(name)
	for _, c := range Catalog {
		if strings.EqualFold(c.Name, trimmed) {
			return c, true
		}
	}
	return Commodity{}, false
}
