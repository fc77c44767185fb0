package submission

import (
	"strconv"
	"strings"

	"grant-intake/internal/common/validation"
	"grant-intake/internal/forms"
)

// urlStrippedFields never legitimately contain links.
var urlStrippedFields = []string{"firstName", "lastName", "company"}

var numericFields = []string{"budgetRequest"}

// optionalURLFields are dropped when blank so an untouched input reads as
// absent rather than as an invalid URL.
var optionalURLFields = []string{"projectRepo"}

var checkboxFields = []string{"repeatApplicant", "outreachConsent"}

// Sanitize returns a cleaned copy of payload: strings trimmed, links removed
// from name fields, blank optional links and numbers dropped, numeric strings
// parsed, checkbox values normalised and empty uploads dropped. Values it
// cannot clean are left for validation to report.
func Sanitize(payload forms.Payload) forms.Payload {
	out := make(forms.Payload, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		out[k] = v
	}

	for _, field := range urlStrippedFields {
		if s, ok := out[field].(string); ok {
			out[field] = validation.StripURLs(s)
		}
	}

	for _, field := range optionalURLFields {
		if s, ok := out[field].(string); ok && s == "" {
			delete(out, field)
		}
	}

	for _, field := range numericFields {
		s, ok := out[field].(string)
		if !ok {
			continue
		}
		if s == "" {
			delete(out, field)
			continue
		}
		if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			out[field] = n
		}
	}

	for _, field := range checkboxFields {
		s, ok := out[field].(string)
		if !ok {
			continue
		}
		switch strings.ToLower(s) {
		case "on", "true", "1":
			out[field] = true
		case "off", "false", "0":
			out[field] = false
		case "":
			delete(out, field)
		}
	}

	if emptyUpload(out["fileUpload"]) {
		delete(out, "fileUpload")
	}
	return out
}

func emptyUpload(v interface{}) bool {
	switch f := v.(type) {
	case nil:
		return true
	case *forms.FileUpload:
		return f == nil || (f.Size == 0 && f.OriginalFilename == "")
	case forms.FileUpload:
		return f.Size == 0 && f.OriginalFilename == ""
	case string:
		return f == ""
	default:
		return false
	}
}
