package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// last4Regex matches the four trailing digits of a card number.
	last4Regex = regexp.MustCompile(`^[0-9]{4}$`)

	// cardNumberRegex matches a raw card number, spaces excluded.
	cardNumberRegex = regexp.MustCompile(`^[0-9]{12,19}$`)
)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance. Field names reported in validation
// errors are the JSON names of the fields.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	// Register custom validation functions
	_ = v.RegisterValidation("last4", validateLast4)
	_ = v.RegisterValidation("cardnumber", validateCardNumber)

	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// ValidateVar validates a single value against the given tags, e.g.
// ValidateVar(email, "required,email").
func (v *Validator) ValidateVar(field any, tag string) error {
	return v.validator.Var(field, tag)
}

// RegisterCustomTypeFunc registers fn to convert values of the given types
// before their tags are evaluated. It is used by types that wrap a value the
// validator cannot inspect directly, such as timestamps.
func (v *Validator) RegisterCustomTypeFunc(fn validator.CustomTypeFunc, types ...any) {
	v.validator.RegisterCustomTypeFunc(fn, types...)
}

// jsonFieldName returns the JSON name of a struct field, or the Go name when
// the field has no JSON tag.
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

// validateLast4 validates the last four digits of a card.
func validateLast4(fl validator.FieldLevel) bool {
	// If the field is empty, it's valid (use required tag if it's required)
	if fl.Field().String() == "" {
		return true
	}
	return last4Regex.MatchString(fl.Field().String())
}

// validateCardNumber validates a raw card number.
func validateCardNumber(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return cardNumberRegex.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
}
