package shopping

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed prices.json
var defaultPrices []byte

// Price is the supermarket price of one unit of an ingredient.
type Price struct {
	Unit  string  `json:"unit"`
	Price float64 `json:"price"`
}

// PriceTable estimates what shopping-list lines cost.
type PriceTable struct {
	Currency string           `json:"currency"`
	Items    map[string]Price `json:"items"`
}

// LoadPriceTable returns the built-in table, overlaid with the entries of the
// JSON file at path when path is not empty.
func LoadPriceTable(path string) (*PriceTable, error) {
	table, err := parsePriceTable(defaultPrices)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in price table: %w", err)
	}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table %s: %w", path, err)
	}
	override, err := parsePriceTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price table %s: %w", path, err)
	}
	if override.Currency != "" {
		table.Currency = override.Currency
	}
	for name, p := range override.Items {
		table.Items[name] = p
	}
	return table, nil
}

func parsePriceTable(data []byte) (*PriceTable, error) {
	var t PriceTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	items := make(map[string]Price, len(t.Items))
	for name, p := range t.Items {
		items[NormalizeName(name)] = p
	}
	t.Items = items
	return &t, nil
}

// Lookup finds the price of a normalised name, dropping leading words until
// an entry matches: "free range chicken breast" finds "chicken breast".
func (t *PriceTable) Lookup(name string) (Price, bool) {
	if t == nil {
		return Price{}, false
	}
	words := strings.Fields(name)
	for i := range words {
		if p, ok := t.Items[strings.Join(words[i:], " ")]; ok {
			return p, true
		}
	}
	return Price{}, false
}

// Estimate prices a quantity of an ingredient. Lines whose unit differs from
// the table entry cannot be priced.
func (t *PriceTable) Estimate(name string, qty float64, unit string) (float64, bool) {
	p, ok := t.Lookup(name)
	if !ok || p.Unit != unit || qty <= 0 {
		return 0, false
	}
	return round2(qty * p.Price), true
}
