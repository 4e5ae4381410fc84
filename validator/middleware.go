package validator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vocdoni/stripe-subscriptions/errors"
	"go.vocdoni.io/dvote/log"
)

// keys for storing models in context
type (
	ModelKey          struct{}
	ValidatedModelKey struct{}
)

// ValidationError represents an individual validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// AddModelMiddleware adds the provided model to the request context.
func (*Validator) AddModelMiddleware(model any) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ModelKey{}, model)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InputValidator validates the JSON request body against the model stored in the context.
// If successful, the validated instance is added to the context for downstream handlers.
func (v *Validator) InputValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only validate for methods that may have a body.
		if r.Method == http.MethodGet || r.Method == http.MethodHead ||
			r.Method == http.MethodOptions || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		// Retrieve the model from context.
		model := r.Context().Value(ModelKey{})
		if model == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Ensure the Content-Type header indicates JSON.
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			errors.ErrMalformedBody.With("content type must be application/json").Write(w)
			return
		}

		instance := reflect.New(reflect.TypeOf(model)).Interface()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			errors.ErrMalformedBody.Write(w)
			return
		}

		if err := json.Unmarshal(body, instance); err != nil {
			errors.ErrMalformedBody.Write(w)
			return
		}

		if err := v.validator.Struct(instance); err != nil {
			var fieldErrs validator.ValidationErrors
			if !stderrors.As(err, &fieldErrs) {
				errors.ErrMalformedBody.WithErr(err).Write(w)
				return
			}
			var validationErrors ValidationErrors
			for _, fieldErr := range fieldErrs {
				validationErrors = append(validationErrors, ValidationError{
					Field:   fieldErr.Field(),
					Message: getErrorMessage(fieldErr),
				})
			}
			log.Debugw("validation errors", "errors", validationErrors)
			errors.ErrMalformedBody.WithErr(validationErrors).WithData(validationErrors).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), ValidatedModelKey{}, instance)
		r.Body = io.NopCloser(bytes.NewBuffer(body))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetValidatedModel retrieves the validated model from the context.
func GetValidatedModel(ctx context.Context) (any, bool) {
	model := ctx.Value(ValidatedModelKey{})
	return model, model != nil
}

// getErrorMessage returns a human-readable error message for a validation error.
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", err.Param())
	case "url":
		return "Invalid URL format"
	case "last4":
		return "Must be the last four digits of a card"
	case "cardnumber":
		return "Invalid card number"
	default:
		return fmt.Sprintf("Invalid value: %s", err.Tag())
	}
}
