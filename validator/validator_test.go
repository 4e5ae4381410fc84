package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

// TestValidateLast4 tests the last4 validator.
func TestValidateLast4(t *testing.T) {
	type TestStruct struct {
		Last4 string `validate:"omitempty,last4"`
	}

	v := New()

	for _, last4 := range []string{"4242", "0000", "8210"} {
		if err := v.Validate(&TestStruct{Last4: last4}); err != nil {
			t.Errorf("Expected last4 %s to be valid, but got error: %v", last4, err)
		}
	}

	invalid := []string{
		"424",   // Too short
		"42424", // Too long
		"42a2",  // Not a digit
		" 424",  // Leading space
	}
	for _, last4 := range invalid {
		if err := v.Validate(&TestStruct{Last4: last4}); err == nil {
			t.Errorf("Expected last4 %q to be invalid, but it was valid", last4)
		}
	}

	// Test empty value (should be valid since we're not using required)
	if err := v.Validate(&TestStruct{Last4: ""}); err != nil {
		t.Errorf("Expected empty last4 to be valid, but got error: %v", err)
	}
}

// TestValidateCardNumber tests the card number validator.
func TestValidateCardNumber(t *testing.T) {
	type TestStruct struct {
		Number string `validate:"omitempty,cardnumber"`
	}

	v := New()

	valid := []string{
		"4242424242424242",
		"5200828282828210",
		"4242 4242 4242 4242",
	}
	for _, number := range valid {
		if err := v.Validate(&TestStruct{Number: number}); err != nil {
			t.Errorf("Expected card number %s to be valid, but got error: %v", number, err)
		}
	}

	invalid := []string{
		"4242",                  // Too short
		"4242-4242-4242-4242",   // Dashes
		"42424242424242424242a", // Letters
	}
	for _, number := range invalid {
		if err := v.Validate(&TestStruct{Number: number}); err == nil {
			t.Errorf("Expected card number %s to be invalid, but it was valid", number)
		}
	}
}

// TestJSONFieldNames checks that validation errors report JSON field names.
func TestJSONFieldNames(t *testing.T) {
	type TestStruct struct {
		Email string `json:"email" validate:"required"`
		Plain int    `validate:"min=1"`
	}

	err := New().Validate(&TestStruct{})
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("Expected validation errors, got %v", err)
	}
	fields := map[string]bool{}
	for _, fieldErr := range validationErrs {
		fields[fieldErr.Field()] = true
	}
	if !fields["email"] || !fields["Plain"] {
		t.Errorf("Expected fields email and Plain, got %v", fields)
	}
}
