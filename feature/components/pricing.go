package components

import "tenant-bootstrapper/feature/spec"

// DefaultIdentifier is the price variant and stock location a bare number
// applies to.
const DefaultIdentifier = "default"

// PriceEntry is a variant price in one price variant.
type PriceEntry struct {
	Identifier string  `json:"identifier"`
	Price      float64 `json:"price"`
}

// KeyValue is a metadata pair of a stock location entry.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StockEntry is a variant stock level in one stock location.
type StockEntry struct {
	Identifier string     `json:"identifier"`
	Stock      float64    `json:"stock"`
	Meta       []KeyValue `json:"meta"`
}

// MergePrices applies price onto the existing entries of a variant. Entries
// are matched by identifier and unmatched ones are kept. A variant without
// existing entries and without a price gets a zero default price.
func MergePrices(price *spec.Amounts, existing []PriceEntry) []PriceEntry {
	if price == nil && existing == nil {
		return []PriceEntry{{Identifier: DefaultIdentifier, Price: 0}}
	}

	out := append([]PriceEntry{}, existing...)
	set := func(identifier string, v float64) {
		for i := range out {
			if out[i].Identifier == identifier {
				out[i].Price = v
				return
			}
		}
		out = append(out, PriceEntry{Identifier: identifier, Price: v})
	}

	if price != nil {
		if price.Single != nil {
			set(DefaultIdentifier, *price.Single)
		}
		for _, e := range price.Entries {
			set(e.Identifier, e.Value)
		}
	}
	return out
}

// MergeStock applies stock onto the existing entries of a variant, keeping
// their metadata. It returns nil, meaning no stock change, when there is
// neither a spec value nor existing entries.
func MergeStock(stock *spec.Amounts, existing []StockEntry) []StockEntry {
	if stock == nil && existing == nil {
		return nil
	}

	out := make([]StockEntry, 0, len(existing))
	for _, e := range existing {
		if e.Meta == nil {
			e.Meta = []KeyValue{}
		}
		out = append(out, e)
	}
	set := func(identifier string, v float64) {
		for i := range out {
			if out[i].Identifier == identifier {
				out[i].Stock = v
				return
			}
		}
		out = append(out, StockEntry{Identifier: identifier, Stock: v, Meta: []KeyValue{}})
	}

	if stock != nil {
		if stock.Single != nil {
			set(DefaultIdentifier, *stock.Single)
		}
		for _, e := range stock.Entries {
			set(e.Identifier, e.Value)
		}
	}
	return out
}
