package shopping

import (
	"regexp"
	"strings"
)

var (
	parenthesised = regexp.MustCompile(`\([^)]*\)`)
	leadingAmount = regexp.MustCompile(`^[\d\s./½¼¾⅓⅔-]+(g|kg|ml|l|tsp|tbsp|cups?|cans?|cloves?|bunch(es)?|packs?|grams?|kilograms?|litres?|liters?|teaspoons?|tablespoons?|pinch)?\b\.?\s*(of\s+)?`)
	nonWord       = regexp.MustCompile(`[^a-z\s-]+`)
)

// prepWords are dropped from ingredient names: they describe handling, not
// what to buy.
var prepWords = map[string]bool{
	"chopped": true, "diced": true, "sliced": true, "minced": true, "grated": true,
	"crushed": true, "peeled": true, "finely": true, "roughly": true, "thinly": true,
	"fresh": true, "freshly": true, "large": true, "small": true, "medium": true,
	"ripe": true, "shredded": true, "trimmed": true, "halved": true, "quartered": true,
	"softened": true, "melted": true, "beaten": true, "boneless": true, "skinless": true,
	"to": true, "taste": true, "optional": true,
}

// pluralExceptions keep their trailing s.
var pluralExceptions = map[string]bool{
	"asparagus": true, "couscous": true, "hummus": true, "molasses": true, "swiss": true,
}

// NormalizeName reduces an ingredient line to the name used to merge
// shopping-list entries: "2 large Tomatoes (ripe), diced" becomes "tomato".
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = parenthesised.ReplaceAllString(s, " ")
	if before, _, ok := strings.Cut(s, ","); ok {
		s = before
	}
	if before, _, ok := strings.Cut(s, " or "); ok {
		s = before
	}
	s = leadingAmount.ReplaceAllString(strings.TrimSpace(s), "")
	s = nonWord.ReplaceAllString(s, " ")

	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, "-")
		if w == "" || prepWords[w] {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = singular(words[len(words)-1])
	return strings.Join(words, " ")
}

func singular(w string) string {
	if pluralExceptions[w] || len(w) <= 3 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "oes"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "ies"):
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return strings.TrimSuffix(w, "s")
	}
	return w
}

// canonicalUnit converts metric units to their base unit. Ingredients
// without a unit are counted as "each".
func canonicalUnit(qty float64, unit string) (float64, string) {
	switch unit {
	case "kg":
		return qty * 1000, "g"
	case "l":
		return qty * 1000, "ml"
	case "":
		return qty, "each"
	}
	return qty, unit
}
