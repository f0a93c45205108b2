// Package validation checks candidate content data against a model's field
// definitions. Validate is a pure function: no I/O, deterministic for the
// same inputs.
package validation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sunriver-travel/nilecms/internal/registry"
	"github.com/sunriver-travel/nilecms/internal/types"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks data against the model and returns a field→message map,
// or nil when every field passes. A missing required field reports only the
// required error; type-level checks run only on present, non-empty values.
// Upload fields (image/file) carry stored locations and are checked for
// required-ness only.
func Validate(data types.FieldMap, model *registry.ContentModel) types.FieldErrors {
	errs := make(types.FieldErrors)

	for _, field := range model.Fields {
		value, present := data[field.ID]
		if !present || isEmpty(value) {
			if field.Required {
				errs[field.ID] = field.Label + " is required"
			}
			continue
		}

		if msg := checkType(value, field); msg != "" {
			errs[field.ID] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// checkType applies the type-specific rules for one present value and
// returns the first violation's message. Range rules are ordered min before
// max; ozzo stops at the first failing rule, which keeps min and max
// mutually exclusive failure paths.
func checkType(value interface{}, field registry.FieldDefinition) string {
	switch field.Type {
	case registry.FieldNumber:
		n, ok := toNumber(value)
		if !ok {
			return field.Label + " must be a number"
		}
		var rules []ozzo.Rule
		if min := field.Validation.Min; min != nil {
			rules = append(rules, ozzo.Min(*min).Error(
				fmt.Sprintf("%s must be at least %s", field.Label, formatNumber(*min))))
		}
		if max := field.Validation.Max; max != nil {
			rules = append(rules, ozzo.Max(*max).Error(
				fmt.Sprintf("%s must be at most %s", field.Label, formatNumber(*max))))
		}
		if err := ozzo.Validate(n, rules...); err != nil {
			return err.Error()
		}

	case registry.FieldString, registry.FieldText, registry.FieldRichText, registry.FieldSelect:
		s, ok := value.(string)
		if !ok {
			return field.Label + " must be a string"
		}
		var rules []ozzo.Rule
		if min := field.Validation.MinLength; min != nil {
			rules = append(rules, ozzo.Length(*min, 0).Error(
				fmt.Sprintf("%s must be at least %d characters", field.Label, *min)))
		}
		if max := field.Validation.MaxLength; max != nil {
			rules = append(rules, ozzo.Length(0, *max).Error(
				fmt.Sprintf("%s must be at most %d characters", field.Label, *max)))
		}
		if err := ozzo.Validate(s, rules...); err != nil {
			return err.Error()
		}

	case registry.FieldEmail:
		s, ok := value.(string)
		if !ok {
			return field.Label + " must be a valid email address"
		}
		if err := ozzo.Validate(s, ozzo.Match(emailPattern).Error(
			field.Label+" must be a valid email address")); err != nil {
			return err.Error()
		}

	case registry.FieldURL:
		s, ok := value.(string)
		if !ok {
			return field.Label + " must be a valid URL"
		}
		if err := ozzo.Validate(s, ozzo.By(wellFormedURL)); err != nil {
			return field.Label + " must be a valid URL"
		}
	}

	// Remaining types (image, file, boolean, date) have no type-level rules
	// here; they are constrained only by required-ness.
	return ""
}

// wellFormedURL uses the standard URL parser as the sole validity oracle.
func wellFormedURL(value interface{}) error {
	s, _ := value.(string)
	if _, err := url.ParseRequestURI(s); err != nil {
		return err
	}
	return nil
}

// toNumber accepts JSON numbers, Go numeric kinds, and numeric strings
// (multipart form values arrive as strings).
func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
