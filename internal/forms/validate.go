package forms

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/mitchellh/mapstructure"

	"grant-intake/internal/common/validation"
)

// Payload is the untyped field map produced by the HTTP layer, merging body
// fields and uploaded files.
type Payload map[string]interface{}

var messages = map[string]string{
	"fileUpload.required":    "A PDF file is required",
	"fileUpload.mimetype.eq": "Only PDF files are allowed",
	"fileUpload.size.max":    "File must be 4MB or smaller",
	"officeHoursRequest.eq":  "Invalid discriminator value. Expected 'Advice' | 'Project Feedback'",
}

var quotedField = regexp.MustCompile(`'([^']+)'`)

// Validate decodes payload into the schema for ft and checks every rule.
// On user error it returns a nil Submission and an invalid result; the error
// return is reserved for misuse such as an unknown FormType.
func Validate(payload Payload, ft FormType) (Submission, *validation.ValidationResult, error) {
	if !ft.Valid() {
		return nil, nil, fmt.Errorf("validate: unknown form type %q", ft)
	}

	in := withDefaults(payload)

	var target Submission
	if ft == FormTypeOfficeHours {
		request, _ := in["officeHoursRequest"].(string)
		oh := newOfficeHoursSchema(request)
		if oh == nil {
			result := validation.Valid()
			result.Add("officeHoursRequest", messages["officeHoursRequest.eq"], "INVALID_ENUM_VALUE")
			return nil, result, nil
		}
		target = oh
	} else {
		target = newSchema(ft)
	}

	result, err := decode(in, target)
	if err != nil {
		return nil, nil, err
	}

	ruleResult, err := validation.ValidateStruct(target, messages)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range ruleResult.Errors {
		// A field that failed to decode has no meaningful value to check.
		if result.HasErrors(e.Field) {
			continue
		}
		result.Add(e.Field, e.Message, e.Code)
	}

	if !result.Valid {
		return nil, result, nil
	}
	return target, result, nil
}

// withDefaults copies payload and fills omitted booleans.
func withDefaults(payload Payload) map[string]interface{} {
	out := make(map[string]interface{}, len(payload)+len(booleanDefaults))
	for k, v := range payload {
		out[k] = v
	}
	for k, def := range booleanDefaults {
		if v, ok := out[k]; !ok || v == nil {
			out[k] = def
		}
	}
	return out
}

// decode coerces loosely typed values (numeric strings, "true") into the
// schema struct. Values that cannot be coerced are reported per field.
func decode(in map[string]interface{}, target Submission) (*validation.ValidationResult, error) {
	result := validation.Valid()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}

	err = dec.Decode(in)
	if err == nil {
		return result, nil
	}

	var mErr *mapstructure.Error
	if !errors.As(err, &mErr) {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	for _, msg := range mErr.Errors {
		field := "_"
		if m := quotedField.FindStringSubmatch(msg); m != nil {
			field = m[1]
		}
		result.Add(field, "Invalid type", "INVALID_TYPE")
	}
	return result, nil
}
