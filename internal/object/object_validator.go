package object

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// removes all HTML/scripts
var strictPolicy = bluemonday.StrictPolicy()

// Validator: validation and sanitization of scene objects
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewValidator() *Validator {
	return &Validator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: strictPolicy,
	}
}

// ValidateAndSanitize: validates the object against its schema and returns a sanitized copy
func (v *Validator) ValidateAndSanitize(obj *Object) (*Object, error) {
	if obj == nil {
		return nil, errors.New("missing object")
	}

	if err := obj.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := v.validate.Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return v.sanitize(obj), nil
}

// sanitize: strips HTML from every free-text field
func (v *Validator) sanitize(obj *Object) *Object {
	clean := obj.Copy()
	clean.ID = v.sanitizer.Sanitize(clean.ID)
	clean.UserID = v.sanitizer.Sanitize(clean.UserID)
	clean.Style.Fill = v.sanitizer.Sanitize(clean.Style.Fill)
	clean.Style.Stroke = v.sanitizer.Sanitize(clean.Style.Stroke)

	switch {
	case clean.Text != nil:
		clean.Text.Text = v.sanitizer.Sanitize(clean.Text.Text)
		clean.Text.FontFamily = v.sanitizer.Sanitize(clean.Text.FontFamily)
	case clean.Note != nil:
		clean.Note.Text = v.sanitizer.Sanitize(clean.Note.Text)
		clean.Note.Color = v.sanitizer.Sanitize(clean.Note.Color)
	case clean.Image != nil:
		clean.Image.Prompt = v.sanitizer.Sanitize(clean.Image.Prompt)
	}
	return clean
}

// SanitizeString: strips HTML from a single value (ids echoed back to clients)
func SanitizeString(s string) string {
	return strictPolicy.Sanitize(s)
}

// mapToStruct: converts a map[string]interface{} to a typed struct using JSON marshaling
func mapToStruct(data map[string]interface{}, target interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}

// formatValidationErrors converts validator errors to a user-friendly error message
func formatValidationErrors(errs validator.ValidationErrors) error {
	return fmt.Errorf("validation failed: %s", formatSingleError(errs[0])) // first error only
}

func formatSingleError(err validator.FieldError) string {
	field := err.Namespace()
	tag := err.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min", "max":
		return fmt.Sprintf("'%s' value out of allowed range", field)
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s]", field, err.Param())
	default:
		return fmt.Sprintf("'%s' is invalid", field)
	}
}
