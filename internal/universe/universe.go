// Package universe holds the built-in symbol universes scanned by bar directory sources.
package universe

import (
	"fmt"
	"sort"
	"strings"
)

// Universe is a named list of symbols.
type Universe struct {
	Name    string
	Title   string
	Symbols []string
}

// Default names the universes scanned when none are requested.
var Default = []string{"dow30", "nasdaq100"}

var builtin = []Universe{
	{
		Name:  "dow30",
		Title: "Dow 30",
		Symbols: []string{
			"MMM", "AXP", "AMGN", "AAPL", "BA", "CAT", "CVX", "CSCO", "KO", "DIS",
			"DOW", "GS", "HD", "HON", "IBM", "INTC", "JNJ", "JPM", "MCD", "MRK",
			"MSFT", "NKE", "NVDA", "PG", "CRM", "TRV", "UNH", "VZ", "V", "WMT",
		},
	},
	{
		Name:  "nasdaq100",
		Title: "Nasdaq 100",
		Symbols: []string{
			"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT", "AMD", "AMGN",
			"AMZN", "ANSS", "ASML", "AVGO", "AZN", "BIIB", "BKNG", "BKR", "CDNS", "CEG",
			"CHTR", "CMCSA", "COST", "CPRT", "CSCO", "CSX", "CTAS", "CTSH", "DDOG", "DLTR",
			"DXCM", "EA", "EXC", "FAST", "FTNT", "GEHC", "GILD", "GFS", "GOOG", "GOOGL",
			"HON", "IDXX", "ILMN", "INTC", "INTU", "ISRG", "JD", "KDP", "KHC", "KLAC",
			"LCID", "LRCX", "LULU", "MAR", "MCHP", "MDLZ", "MELI", "META", "MNST", "MRNA",
			"MRVL", "MSFT", "MU", "NFLX", "NVDA", "NXPI", "ODFL", "ORLY", "PANW", "PAYX",
			"PCAR", "PDD", "PEP", "PYPL", "QCOM", "REGN", "ROST", "SBUX", "SGEN", "SIRI",
			"SNPS", "SPLK", "SWKS", "TEAM", "TMUS", "TSLA", "TXN", "VRSK", "VRTX", "WBA",
			"WBD", "WDAY", "XEL", "ZM", "ZS",
		},
	},
	{
		Name:  "global",
		Title: "Global Indices",
		Symbols: []string{
			"^GSPC", "^DJI", "^IXIC", "^GDAXI", "^FTSE", "^FCHI", "^STOXX50E", "^N225",
			"^HSI", "^STI", "^AXJO", "^KS11", "^BSESN", "^BVSP", "^MXX",
		},
	},
	{
		Name:  "crypto",
		Title: "Crypto",
		Symbols: []string{
			"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD", "BNB-USD",
			"ADA-USD", "DOGE-USD", "TRX-USD", "LINK-USD", "LTC-USD",
			"BCH-USD", "DOT-USD", "MATIC-USD", "SHIB-USD", "AVAX-USD",
		},
	},
	{
		Name:    "commodities-hard",
		Title:   "Commodities (Hard)",
		Symbols: []string{"GC=F", "SI=F", "HG=F", "PL=F", "PA=F", "CL=F", "BZ=F", "NG=F", "RB=F"},
	},
	{
		Name:    "commodities-soft",
		Title:   "Commodities (Soft)",
		Symbols: []string{"ZC=F", "ZW=F", "ZS=F", "SB=F", "CC=F", "KC=F", "CT=F", "OJ=F", "LBS=F"},
	},
}

// All returns the built-in universes in display order.
func All() []Universe {
	out := make([]Universe, len(builtin))
	for i, u := range builtin {
		out[i] = Universe{Name: u.Name, Title: u.Title, Symbols: append([]string(nil), u.Symbols...)}
	}
	return out
}

// Names returns the built-in universe names.
func Names() []string {
	names := make([]string, len(builtin))
	for i, u := range builtin {
		names[i] = u.Name
	}
	return names
}

// Get finds a universe by name or title, case-insensitively.
func Get(name string) (Universe, bool) {
	key := normalize(name)
	for _, u := range builtin {
		if normalize(u.Name) == key || normalize(u.Title) == key {
			return Universe{Name: u.Name, Title: u.Title, Symbols: append([]string(nil), u.Symbols...)}, true
		}
	}
	return Universe{}, false
}

// Lookup returns the de-duplicated, sorted union of the named universes.
// An empty list resolves to Default.
func Lookup(names []string) ([]string, error) {
	if len(names) == 0 {
		names = Default
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, name := range names {
		u, ok := Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown universe %q (available: %s)", name, strings.Join(Names(), ", "))
		}
		for _, s := range u.Symbols {
			if !seen[s] {
				seen[s] = true
				symbols = append(symbols, s)
			}
		}
	}

	sort.Strings(symbols)
	return symbols, nil
}

func normalize(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "", "(", "", ")", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}
