package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrMalformedPayload is returned when an AI response is not JSON at all.
var ErrMalformedPayload = errors.New("malformed recipe payload")

// NewGeneratedID returns a fresh catalog id for a model-written recipe.
func NewGeneratedID() string {
	return "ai-" + uuid.NewString()
}

// DecodeError describes why one recipe in an untrusted payload was rejected.
type DecodeError struct {
	Index  int
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("recipe %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("recipe %d: field %s: %s", e.Index, e.Field, e.Reason)
}

// Decoded is the tagged result of decoding one recipe: exactly one of Recipe
// (when Err is nil) or Err is meaningful.
type Decoded struct {
	Recipe Recipe
	Err    *DecodeError
}

// OK reports whether the entry decoded into a valid recipe.
func (d Decoded) OK() bool { return d.Err == nil }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var codeFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")

// StripCodeFences removes a surrounding markdown code block, which models add
// despite being told not to.
func StripCodeFences(raw string) string {
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

// DecodeGenerated decodes an untrusted AI payload holding one recipe, a list of
// recipes, or an object with a "recipes" list. Each entry is validated on its
// own; only a payload that is not JSON at all fails as a whole.
func DecodeGenerated(raw string) ([]Decoded, error) {
	body := []byte(StripCodeFences(raw))

	var items []json.RawMessage
	switch {
	case bytes.HasPrefix(body, []byte("[")):
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	case bytes.HasPrefix(body, []byte("{")):
		var wrapper struct {
			Recipes []json.RawMessage `json:"recipes"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if wrapper.Recipes != nil {
			items = wrapper.Recipes
		} else {
			items = []json.RawMessage{body}
		}
	default:
		return nil, fmt.Errorf("%w: expected JSON object or array", ErrMalformedPayload)
	}

	out := make([]Decoded, 0, len(items))
	for i, item := range items {
		rec, derr := decodeOne(i, item)
		out = append(out, Decoded{Recipe: rec, Err: derr})
	}
	return out, nil
}

// DecodeSingle decodes a payload expected to hold exactly one recipe.
func DecodeSingle(raw string) (Recipe, error) {
	results, err := DecodeGenerated(raw)
	if err != nil {
		return Recipe{}, err
	}
	if len(results) == 0 {
		return Recipe{}, &DecodeError{Reason: "no recipe in payload"}
	}
	if results[0].Err != nil {
		return Recipe{}, results[0].Err
	}
	return results[0].Recipe, nil
}

// Validate checks a recipe against the catalog constraints.
func Validate(r Recipe) error {
	if derr := validationError(0, validate.Struct(r)); derr != nil {
		return derr
	}
	return nil
}

func validationError(index int, err error) *DecodeError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		return &DecodeError{Index: index, Field: field, Reason: "failed " + fe.Tag() + " check"}
	}
	return &DecodeError{Index: index, Reason: err.Error()}
}

func decodeOne(index int, item json.RawMessage) (Recipe, *DecodeError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return Recipe{}, &DecodeError{Index: index, Reason: "not a JSON object"}
	}

	rec := Recipe{
		ID:    stringField(fields, "id"),
		Title: strings.TrimSpace(stringField(fields, "title", "name")),
	}

	if src, ok := fields["source"]; ok && len(src) > 0 && src[0] == '{' {
		if err := json.Unmarshal(src, &rec.Source); err != nil {
			return Recipe{}, &DecodeError{Index: index, Field: "source", Reason: "not a source object"}
		}
	} else {
		rec.Source.URL = stringField(fields, "source", "source_url", "url")
	}
	if chef := stringField(fields, "chef", "author"); chef != "" && rec.Source.Chef == "" {
		rec.Source.Chef = chef
	}
	if rec.Source.Domain == "" && rec.Source.URL != "" {
		if u, err := url.Parse(rec.Source.URL); err == nil {
			rec.Source.Domain = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}

	var ok bool
	if raw := pick(fields, "time_mins", "timeMins", "total_time", "prep_time", "time"); raw != nil {
		if rec.TimeMins, ok = minutesFromRaw(raw); !ok {
			return Recipe{}, &DecodeError{Index: index, Field: "time_mins", Reason: "not a duration"}
		}
	}
	if raw := pick(fields, "servings", "serves"); raw != nil {
		if rec.Servings, ok = intFromRaw(raw); !ok {
			return Recipe{}, &DecodeError{Index: index, Field: "servings", Reason: "not a number"}
		}
	}
	if raw := pick(fields, "cost_per_serve", "costPerServe", "cost_per_serving"); raw != nil {
		if rec.CostPerServe, ok = floatFromRaw(raw); !ok {
			return Recipe{}, &DecodeError{Index: index, Field: "cost_per_serve", Reason: "not a number"}
		}
	}

	ingredients, derr := ingredientsFromRaw(index, pick(fields, "ingredients"))
	if derr != nil {
		return Recipe{}, derr
	}
	rec.Ingredients = ingredients

	if raw := pick(fields, "tags"); raw != nil {
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return Recipe{}, &DecodeError{Index: index, Field: "tags", Reason: "not a list of strings"}
		}
		rec.Tags = NormalizeTags(tags)
	}
	rec.UpdatedAt = stringField(fields, "updated_at")

	if rec.ID == "" {
		rec.ID = NewGeneratedID()
	}

	if derr := validationError(index, validate.Struct(rec)); derr != nil {
		return Recipe{}, derr
	}
	return rec, nil
}

func pick(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := fields[k]; ok && string(v) != "null" {
			return v
		}
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	raw := pick(fields, keys...)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// NormalizeTags lower-cases tags, joins words with underscores and drops
// duplicates.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

var (
	isoDuration   = regexp.MustCompile(`^p(?:(\d+)d)?(?:t(?:(\d+(?:\.\d+)?)h)?(?:(\d+(?:\.\d+)?)m)?(?:(\d+(?:\.\d+)?)s)?)?$`)
	durationRange = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)`)
	durationPart  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(hours|hour|hrs|hr|h|minutes|minute|mins|min|m)\s*(?:and\s+|,\s*)?`)
)

// minutesFromRaw accepts 30, "30", "30 mins", "1 hr 15 mins", "1hr15min",
// ISO-8601 durations such as "PT1H30M", and ranges like "30-40 mins", which
// count as their upper bound. Anything else is not a duration.
func minutesFromRaw(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f)), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(math.Round(v)), true
	}
	if strings.HasPrefix(s, "p") {
		return isoMinutes(s)
	}

	s = durationRange.ReplaceAllString(s, "$2")
	var total float64
	for s != "" {
		m := durationPart.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		v, _ := strconv.ParseFloat(m[1], 64)
		if strings.HasPrefix(m[2], "h") {
			v *= 60
		}
		total += v
		s = s[len(m[0]):]
	}
	return int(math.Round(total)), true
}

func isoMinutes(s string) (int, bool) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "") {
		return 0, false
	}
	var total float64
	for i, scale := range []float64{24 * 60, 60, 1, 1.0 / 60} {
		if m[i+1] == "" {
			continue
		}
		v, _ := strconv.ParseFloat(m[i+1], 64)
		total += v * scale
	}
	return int(math.Round(total)), true
}

var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

func floatFromRaw(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n := firstNumber.FindString(s)
	if n == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(n, 64)
	return f, err == nil
}

func intFromRaw(raw json.RawMessage) (int, bool) {
	f, ok := floatFromRaw(raw)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func ingredientsFromRaw(index int, raw json.RawMessage) ([]Ingredient, *DecodeError) {
	if raw == nil {
		return nil, &DecodeError{Index: index, Field: "ingredients", Reason: "missing"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Index: index, Field: "ingredients", Reason: "not a list"}
	}

	out := make([]Ingredient, 0, len(items))
	for i, item := range items {
		var line string
		if err := json.Unmarshal(item, &line); err == nil {
			if strings.TrimSpace(line) != "" {
				out = append(out, ParseIngredientLine(line))
			}
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, &DecodeError{Index: index, Field: fmt.Sprintf("ingredients[%d]", i), Reason: "not a string or object"}
		}
		ing := Ingredient{
			Name: strings.TrimSpace(stringField(fields, "name", "item", "ingredient")),
			Unit: NormalizeUnit(stringField(fields, "unit")),
		}
		if q := pick(fields, "qty", "quantity", "amount"); q != nil {
			qty, ok := floatFromRaw(q)
			if !ok {
				var s string
				if json.Unmarshal(q, &s) == nil {
					qty, ok = ParseQuantity(s)
				}
			}
			if !ok {
				return nil, &DecodeError{Index: index, Field: fmt.Sprintf("ingredients[%d].qty", i), Reason: "not a number"}
			}
			ing.Qty = qty
		}
		if ing.Qty == 0 && ing.Unit == "" {
			ing = ParseIngredientLine(ing.Name)
		}
		out = append(out, ing)
	}
	return out, nil
}
