package dashboard

import (
	"math"
	"strconv"
	"strings"

	apperrors "cohost-dashboard/internal/common/errors"
)

// Field names one editable product attribute.
type Field string

const (
	FieldBrand     Field = "brand"
	FieldModel     Field = "model"
	FieldReference Field = "reference"
	FieldPrice     Field = "price"
	FieldYear      Field = "year"
	FieldCondition Field = "condition"
	FieldMovement  Field = "movement"
	FieldBoxPapers Field = "box_papers"
)

// ProductFields lists every field in form order.
var ProductFields = []Field{
	FieldBrand,
	FieldModel,
	FieldReference,
	FieldPrice,
	FieldYear,
	FieldCondition,
	FieldMovement,
	FieldBoxPapers,
}

// ConditionOptions are the choices offered for the condition field.
var ConditionOptions = []string{"Excellent", "Very Good", "Good", "Fair"}

// ParseField validates a field name.
func ParseField(name string) (Field, error) {
	for _, f := range ProductFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", apperrors.NewUnknownFieldError(name)
}

// WithProductField replaces exactly one product field from its raw form value.
func (s State) WithProductField(field Field, raw string) (State, error) {
	p := s.Product
	switch field {
	case FieldBrand:
		p.Brand = raw
	case FieldModel:
		p.Model = raw
	case FieldReference:
		p.Reference = &raw
	case FieldPrice:
		p.Price = parseNumber(raw)
	case FieldYear:
		p.Year = parseOptionalNumber(raw)
	case FieldCondition:
		p.Condition = raw
	case FieldMovement:
		p.Movement = &raw
	case FieldBoxPapers:
		p.BoxPapers = parseCheckbox(raw)
	default:
		return s, apperrors.NewUnknownFieldError(string(field))
	}
	s.Product = p
	return s, nil
}

// parseNumber keeps unparseable input as NaN so the seller's mistake stays visible.
// Blank input is zero.
func parseNumber(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseOptionalNumber treats blank input as absent.
func parseOptionalNumber(raw string) *float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	v := parseNumber(raw)
	return &v
}

func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
