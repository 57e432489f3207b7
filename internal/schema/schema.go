// internal/schema/schema.go
package schema

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Corphon/VisageForge/internal/errors"
)

// Validator performs strict decode-and-validate on every provider-response
// ingestion point and on local inputs before a provider call. It never
// coerces types; a string where a number belongs is a violation, not a
// conversion.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator whose diagnostics use JSON field names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// DecodeAndValidate parses raw provider JSON into target and validates the
// result against the target's declared constraints. Failures carry one line
// per offending field ("path: reason") so the caller can surface exactly
// what the model got wrong.
func (v *Validator) DecodeAndValidate(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(root)"
			}
			diag := fmt.Sprintf("%s: expected %s, got %s", field, typeErr.Type, typeErr.Value)
			return errors.NewSchemaViolationError(
				"the response had structural errors and could not be used",
				[]string{diag}, err)
		}
		return errors.NewSchemaViolationError(
			"the response was malformed JSON and could not be read", nil, err)
	}

	if err := v.validate.Struct(target); err != nil {
		return errors.NewSchemaViolationError(
			"the response had structural errors and could not be used",
			fieldDiagnostics(err), err)
	}
	return nil
}

// ValidateInput checks a locally-built value before it is sent to the
// provider. Same constraint set as DecodeAndValidate, classified as a local
// validation error.
func (v *Validator) ValidateInput(input any) error {
	if err := v.validate.Struct(input); err != nil {
		return &errors.AppError{
			Type:    errors.ErrorTypeValidation,
			Message: "invalid input",
			Err:     err,
			Fields:  fieldDiagnostics(err),
		}
	}
	return nil
}

func fieldDiagnostics(err error) []string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}
	diags := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		diags = append(diags, fmt.Sprintf("%s: %s", fieldPath(fe), reason(fe)))
	}
	return diags
}

// fieldPath strips the root struct name from the namespace, leaving a
// dotted JSON path like "character.skills.strength".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing or empty"
	case "min":
		return fmt.Sprintf("value below minimum %s", fe.Param())
	case "max":
		return fmt.Sprintf("value above maximum %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
