package recipe

import "testing"

func TestParseIngredientLine(t *testing.T) {
	cases := []struct {
		line string
		want Ingredient
	}{
		{"500g chicken breast", Ingredient{Name: "chicken breast", Qty: 500, Unit: "g"}},
		{"1.5 kg beef chuck", Ingredient{Name: "beef chuck", Qty: 1.5, Unit: "kg"}},
		{"1 1/2 cups plain flour", Ingredient{Name: "plain flour", Qty: 1.5, Unit: "cup"}},
		{"½ tsp salt", Ingredient{Name: "salt", Qty: 0.5, Unit: "tsp"}},
		{"2 onions", Ingredient{Name: "onions", Qty: 2}},
		{"2 cloves of garlic", Ingredient{Name: "garlic", Qty: 2, Unit: "clove"}},
		{"salt and pepper", Ingredient{Name: "salt and pepper"}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got := ParseIngredientLine(tc.line)
			if got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	if q, ok := ParseQuantity("3/4"); !ok || q != 0.75 {
		t.Errorf("Expected 0.75, got %v (ok=%v)", q, ok)
	}
	if _, ok := ParseQuantity("some"); ok {
		t.Error("Expected 'some' to fail parsing")
	}
	if _, ok := ParseQuantity("1/0"); ok {
		t.Error("Expected division by zero to fail parsing")
	}
}

func TestNormalizeUnit(t *testing.T) {
	if u := NormalizeUnit("Tablespoons"); u != "tbsp" {
		t.Errorf("Expected 'tbsp', got '%s'", u)
	}
	if u := NormalizeUnit("handful"); u != "handful" {
		t.Errorf("Expected unknown unit to pass through, got '%s'", u)
	}
}
