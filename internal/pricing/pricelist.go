package pricing

import (
	"sort"
	"strconv"
)

// PriceList mirrors the shape of one AWS Price List API product document.
// Term and dimension keys are opaque SKU-derived strings.
type PriceList struct {
	Product Product `json:"product"`
	Terms   Terms   `json:"terms"`
}

type Product struct {
	SKU        string            `json:"sku"`
	Attributes map[string]string `json:"attributes"`
}

type Terms struct {
	OnDemand map[string]Term `json:"OnDemand"`
	Reserved map[string]Term `json:"Reserved"`
}

type Term struct {
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
	TermAttributes  map[string]string         `json:"termAttributes"`
}

type PriceDimension struct {
	Unit         string            `json:"unit"`
	Description  string            `json:"description"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// Info is the fused per-instance price snapshot: hourly USD rates for each
// tier. Zero means the rate is unknown, not free.
type Info struct {
	OnDemand    float64
	Reserved1yr float64
	Reserved3yr float64
	SpotCurrent float64
}

// Extract fuses a raw price list document and a spot quote into an Info.
// Missing or malformed structure degrades to zero for the affected tier;
// pricing gaps must never make an instance ineligible. "First" term and
// dimension are chosen over sorted keys so repeated calls on the same
// document always agree.
func Extract(pl *PriceList, spot float64) Info {
	info := Info{SpotCurrent: spot}
	if pl == nil {
		return info
	}

	if term, ok := firstTerm(pl.Terms.OnDemand); ok {
		info.OnDemand = firstRate(term)
	}

	for _, key := range sortedKeys(pl.Terms.Reserved) {
		term := pl.Terms.Reserved[key]
		rate := firstRate(term)
		switch term.TermAttributes["LeaseContractLength"] {
		case "1yr":
			info.Reserved1yr = rate
		case "3yr":
			info.Reserved3yr = rate
		}
	}
	return info
}

func firstTerm(terms map[string]Term) (Term, bool) {
	keys := sortedKeys(terms)
	if len(keys) == 0 {
		return Term{}, false
	}
	return terms[keys[0]], true
}

// firstRate returns the USD rate of the term's first price dimension, 0 when
// the nesting is absent or unparseable.
func firstRate(term Term) float64 {
	keys := sortedKeys(term.PriceDimensions)
	if len(keys) == 0 {
		return 0
	}
	raw, ok := term.PriceDimensions[keys[0]].PricePerUnit["USD"]
	if !ok {
		return 0
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
