// Package forms defines the grant application form types, their field
// schemas and the translation of validated submissions into CRM records.
package forms

import "fmt"

// FormType selects the schema, mapping table and hardwired constants applied
// to a submission.
type FormType string

const (
	FormTypeRFP         FormType = "rfp"
	FormTypeDirectGrant FormType = "directGrant"
	FormTypeWishlist    FormType = "wishlist"
	FormTypeOfficeHours FormType = "officeHours"
)

// AllFormTypes lists every supported form in a stable order.
var AllFormTypes = []FormType{FormTypeRFP, FormTypeDirectGrant, FormTypeWishlist, FormTypeOfficeHours}

var slugs = map[FormType]string{
	FormTypeRFP:         "rfp",
	FormTypeDirectGrant: "direct-grant",
	FormTypeWishlist:    "wishlist",
	FormTypeOfficeHours: "office-hours",
}

// Slug is the route segment under /api.
func (f FormType) Slug() string {
	return slugs[f]
}

// Valid reports whether f is one of the known form types.
func (f FormType) Valid() bool {
	_, ok := slugs[f]
	return ok
}

// SubjectPrefix labels attachments uploaded for this form.
func (f FormType) SubjectPrefix() string {
	switch f {
	case FormTypeRFP:
		return "RFP"
	case FormTypeDirectGrant:
		return "Direct Grant"
	case FormTypeWishlist:
		return "Wishlist"
	case FormTypeOfficeHours:
		return "Office Hours"
	default:
		return "Application"
	}
}

// ParseFormType accepts either the route slug or the FormType value.
func ParseFormType(s string) (FormType, error) {
	for ft, slug := range slugs {
		if s == slug || s == string(ft) {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown form type %q", s)
}
