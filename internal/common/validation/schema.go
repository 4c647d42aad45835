package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

var (
	cacheMu sync.RWMutex
	cache   = map[string]*Schema{}
)

// Compile parses schemaJSON. Compiled schemas are cached by their source text.
func Compile(schemaJSON string) (*Schema, error) {
	cacheMu.RLock()
	s, ok := cache[schemaJSON]
	cacheMu.RUnlock()
	if ok {
		return s, nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	s = &Schema{schema: compiled}

	cacheMu.Lock()
	cache[schemaJSON] = s
	cacheMu.Unlock()
	return s, nil
}

// Validate checks document against the schema. An error is returned only when
// the document cannot be loaded at all.
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, toValidationError(desc))
	}
	sortErrors(vr.Errors)
	return vr, nil
}

// ValidateDocument compiles schemaJSON and validates document against it.
func ValidateDocument(schemaJSON string, document interface{}) (*ValidationResult, error) {
	s, err := Compile(schemaJSON)
	if err != nil {
		return nil, err
	}
	return s.Validate(document)
}

func toValidationError(desc gojsonschema.ResultError) ValidationError {
	field := desc.Field()
	code := "INVALID_VALUE"

	switch desc.Type() {
	case "required":
		code = "REQUIRED_FIELD_MISSING"
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "(root)" {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
	case "string_gte":
		code = "MIN_LENGTH_VIOLATION"
	case "string_lte":
		code = "MAX_LENGTH_VIOLATION"
	case "pattern":
		code = "PATTERN_MISMATCH"
	case "enum":
		code = "INVALID_ENUM_VALUE"
	case "invalid_type":
		code = "INVALID_TYPE"
	case "additional_property_not_allowed":
		code = "EXTRA_FIELD"
	}

	return ValidationError{
		Field:   field,
		Message: desc.Description(),
		Code:    code,
	}
}

func sortErrors(errs []ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})
}

// RequirePresent reports each field that is absent or blank in data.
func RequirePresent(data map[string]string, fields []string) *ValidationResult {
	vr := &ValidationResult{Valid: true}
	for _, f := range fields {
		if strings.TrimSpace(data[f]) == "" {
			vr.Errors = append(vr.Errors, ValidationError{
				Field:   f,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}
	vr.Valid = len(vr.Errors) == 0
	return vr
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Fields returns the distinct field names that failed, in order.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]bool, len(vr.Errors))
	var fields []string
	for _, err := range vr.Errors {
		if !seen[err.Field] {
			seen[err.Field] = true
			fields = append(fields, err.Field)
		}
	}
	return fields
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}
