package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

var unicodeFractions = map[string]string{
	"½": " 1/2", "¼": " 1/4", "¾": " 3/4", "⅓": " 1/3", "⅔": " 2/3",
}

// unitAliases maps written units onto their short form.
var unitAliases = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gm": "g",
	"kg": "kg", "kilo": "kg", "kilos": "kg", "kilogram": "kg", "kilograms": "kg",
	"ml": "ml", "millilitre": "ml", "millilitres": "ml", "milliliter": "ml", "milliliters": "ml",
	"l": "l", "litre": "l", "litres": "l", "liter": "l", "liters": "l",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp", "tbs": "tbsp",
	"cup": "cup", "cups": "cup",
	"can": "can", "cans": "can", "tin": "can", "tins": "can",
	"clove": "clove", "cloves": "clove",
	"bunch": "bunch", "bunches": "bunch",
	"pinch": "pinch",
	"pack":  "pack", "packet": "pack", "packets": "pack",
}

var leadingQty = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\s*(?:-\s*\d+(?:\.\d+)?\s*)?([a-zA-Z]+\b)?\.?\s*(.*)$`)

// ParseQuantity parses "2", "1.5", "1/2" and "1 1/2".
func ParseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var total float64
	for _, part := range strings.Fields(s) {
		if num, den, ok := strings.Cut(part, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, false
			}
			total += n / d
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		total += v
	}
	return total, true
}

// NormalizeUnit maps a written unit onto its short form. Unknown units are
// returned lower-cased.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(unit), "."))
	if short, ok := unitAliases[u]; ok {
		return short
	}
	return u
}

// ParseIngredientLine splits a free-text line such as "500g chicken breast"
// into quantity, unit and name. Lines without a leading quantity come back
// with Qty 0 and the whole line as the name.
func ParseIngredientLine(line string) Ingredient {
	line = strings.TrimSpace(line)
	for frac, repl := range unicodeFractions {
		line = strings.ReplaceAll(line, frac, repl)
	}
	line = strings.TrimSpace(line)

	m := leadingQty.FindStringSubmatch(line)
	if m == nil {
		return Ingredient{Name: line}
	}
	qty, ok := ParseQuantity(m[1])
	if !ok {
		return Ingredient{Name: line}
	}

	unit, rest := m[2], m[3]
	if unit != "" {
		if short, known := unitAliases[strings.ToLower(unit)]; known {
			unit = short
		} else {
			// Not a unit: in "2 onions" the word belongs to the name.
			rest = strings.TrimSpace(unit + " " + rest)
			unit = ""
		}
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "of "))
	if rest == "" {
		return Ingredient{Name: line}
	}
	return Ingredient{Name: rest, Qty: qty, Unit: unit}
}
