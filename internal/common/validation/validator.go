package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()

		// Report fields by their json name so error paths match the payload.
		validatorInstance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validatorInstance.RegisterValidation("nourl", func(fl validator.FieldLevel) bool {
			return !ContainsURL(fl.Field().String())
		})
	})

	return validatorInstance
}

// RegisterEnum adds a tag that accepts exactly the given string values.
// Call it from package init; registration is not safe once validation runs.
func RegisterEnum(tag string, values []string) error {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return getValidator().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	})
}

// RegisterStructRule adds a cross-field rule for the given struct types.
func RegisterStructRule(fn validator.StructLevelFunc, types ...interface{}) {
	getValidator().RegisterStructValidation(fn, types...)
}

// ValidateStruct runs the tag rules on input. User-facing failures come back
// in the result; a non-nil error means input itself is not validatable.
// messages overrides the default text per "field.tag" key.
func ValidateStruct(input interface{}, messages map[string]string) (*ValidationResult, error) {
	err := getValidator().Struct(input)
	if err == nil {
		return Valid(), nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("validate %T: %w", input, err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	result := Valid()
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		msg := messages[fmt.Sprintf("%s.%s", path, fe.Tag())]
		if msg == "" {
			msg = defaultMessage(fe)
		}
		result.Add(path, msg, errorCode(fe.Tag()))
	}
	return result, nil
}

// fieldPath drops the root struct name and the names of embedded field
// groups, which are exported Go identifiers rather than json names.
// "RFPForm.ContactFields.firstName" becomes "firstName".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	out := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first := p[0]; first >= 'A' && first <= 'Z' {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func defaultMessage(fe validator.FieldError) string {
	numeric := isNumeric(fe.Kind())
	switch fe.Tag() {
	case "required", "required_if":
		return "Required"
	case "email":
		return "Invalid email"
	case "url", "http_url":
		return "Invalid url"
	case "min":
		if numeric {
			return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
		}
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
		}
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "len":
		return fmt.Sprintf("String must contain exactly %s character(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("Number must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
	case "oneof", "eq":
		return "Invalid enum value"
	case "nourl":
		return "URLs are not allowed"
	default:
		if strings.HasSuffix(fe.Tag(), "_enum") {
			return "Invalid enum value"
		}
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

func errorCode(tag string) string {
	switch tag {
	case "required", "required_if":
		return "REQUIRED_FIELD_MISSING"
	case "min":
		return "MIN_LENGTH_VIOLATION"
	case "max":
		return "MAX_LENGTH_VIOLATION"
	case "gt", "gte":
		return "MINIMUM_VIOLATION"
	case "len":
		return "LENGTH_VIOLATION"
	case "email", "url", "http_url", "nourl":
		return "PATTERN_MISMATCH"
	case "oneof", "eq":
		return "INVALID_ENUM_VALUE"
	default:
		if strings.HasSuffix(tag, "_enum") {
			return "INVALID_ENUM_VALUE"
		}
		return "INVALID_VALUE"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
