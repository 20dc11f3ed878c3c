package household

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/common-origin/meal-agent-sub001/internal/recipe"
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a household or override.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

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
	_ = v.RegisterValidation("dietflag", func(fl validator.FieldLevel) bool {
		flag := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		if protein, ok := strings.CutPrefix(flag, ExcludePrefix); ok {
			return slices.Contains(recipe.Proteins, protein)
		}
		return slices.Contains(dietTags, flag)
	})
	_ = v.RegisterValidation("monday", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil && d.Weekday() == time.Monday
	})
	return v
}

// Validate checks the household profile.
func (h Household) Validate() error {
	return toValidationError(validate.Struct(h))
}

// Validate checks a weekly override.
func (o WeeklyOverrides) Validate() error {
	return toValidationError(validate.Struct(o))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "is too long"
	case "dietflag":
		return fmt.Sprintf("unknown dietary flag %q", fe.Value())
	case "datetime":
		return "must be a YYYY-MM-DD date"
	case "monday":
		return "must be a Monday"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
