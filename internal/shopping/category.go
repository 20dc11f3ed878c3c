package shopping

import "strings"

// Shopping-list aisles.
const (
	CategoryProduce = "produce"
	CategoryMeat    = "meat & seafood"
	CategoryDairy   = "dairy & eggs"
	CategoryBakery  = "bakery"
	CategoryPantry  = "pantry"
	CategoryFrozen  = "frozen"
	CategoryOther   = "other"
)

// categoryKeywords is checked in order; the first category with a keyword
// contained in the name wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryFrozen, []string{"frozen", "ice cream"}},
	{CategoryMeat, []string{"chicken", "beef", "pork", "lamb", "mince", "bacon", "ham", "sausage", "steak",
		"salmon", "tuna", "fish", "prawn", "shrimp", "mussel", "turkey", "chorizo"}},
	{CategoryDairy, []string{"milk", "cheese", "butter", "cream", "yoghurt", "yogurt", "egg", "parmesan", "feta", "mozzarella"}},
	{CategoryBakery, []string{"bread", "tortilla", "wrap", "bun", "roll", "pita", "naan", "baguette"}},
	{CategoryPantry, []string{"oil", "salt", "pepper", "flour", "sugar", "rice", "pasta", "spaghetti", "noodle",
		"stock", "sauce", "vinegar", "spice", "cumin", "paprika", "oregano", "lentil", "chickpea", "bean",
		"passata", "honey", "mustard"}},
	{CategoryProduce, []string{"onion", "garlic", "tomato", "potato", "carrot", "celery", "capsicum", "pepper",
		"zucchini", "broccoli", "spinach", "lettuce", "cucumber", "mushroom", "lemon", "lime", "apple",
		"banana", "avocado", "ginger", "coriander", "parsley", "basil", "herb", "corn", "pumpkin", "kale"}},
}

// categoryOverrides catch names that contain another aisle's keyword.
var categoryOverrides = []struct {
	word     string
	category string
}{
	{"coconut milk", CategoryPantry},
	{"tomato paste", CategoryPantry},
	{"canned", CategoryPantry},
	{"stock", CategoryPantry},
	{"peanut butter", CategoryPantry},
	{"eggplant", CategoryProduce},
}

// Categorize assigns a normalised ingredient name to an aisle.
func Categorize(name string) string {
	for _, o := range categoryOverrides {
		if strings.Contains(name, o.word) {
			return o.category
		}
	}
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(name, w) {
				return c.category
			}
		}
	}
	return CategoryOther
}
