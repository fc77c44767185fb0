package forms

import (
	"fmt"
	"reflect"
	"strings"
)

// Record is a CRM record keyed by CRM field identifiers.
type Record map[string]interface{}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

const companyNotApplicable = "N/A"

// officeHoursProjectFields are dropped from Advice requests.
var officeHoursProjectFields = []string{
	CRMProjectDescription,
	CRMProjectRepo,
	CRMDomain,
	CRMAdditionalInformation,
}

// MapFormDataToSalesforce applies the mapping table for the submission's form
// type. Absent values are skipped while empty strings, zero and false are
// kept. A blank company falls back to "first last" only when both names are
// present.
func MapFormDataToSalesforce(s Submission) (Record, error) {
	ft := s.FormType()
	table, ok := fieldMappings[ft]
	if !ok {
		return nil, fmt.Errorf("no field mapping registered for form type %q", ft)
	}
	hardwired := HardwiredFields(ft)
	if hardwired == nil {
		return nil, fmt.Errorf("no hardwired fields registered for form type %q", ft)
	}

	record := fold(table, FormValues(s), Record(hardwired))

	if company, _ := record[CRMCompany].(string); company == "" {
		if c := s.Contact(); c.FirstName != "" && c.LastName != "" {
			record[CRMCompany] = c.FirstName + " " + c.LastName
		}
	}
	return record, nil
}

func fold(table []FieldPair, values map[string]interface{}, seed Record) Record {
	out := seed.Clone()
	for _, pair := range table {
		if _, system := systemFields[pair.Form]; system {
			continue
		}
		v, ok := values[pair.Form]
		if !ok || v == nil {
			continue
		}
		out[pair.CRM] = v
	}
	return out
}

// BuildApplicationRecord produces the record handed to the CRM: the generic
// mapping followed by the per-form adjustments.
func BuildApplicationRecord(s Submission) (Record, error) {
	record, err := MapFormDataToSalesforce(s)
	if err != nil {
		return nil, err
	}

	switch f := s.(type) {
	case *RFPForm:
		linkInitiative(record, f.SelectedRFPID)
	case *WishlistForm:
		linkInitiative(record, f.SelectedWishlistID)
	case *OfficeHoursAdviceForm:
		record[CRMName] = fmt.Sprintf("%s, %s", f.FirstName, f.LastName)
		for _, field := range officeHoursProjectFields {
			delete(record, field)
		}
		officeHoursCompany(record, f.Company)
	case *OfficeHoursFeedbackForm:
		record[CRMName] = f.ProjectName
		officeHoursCompany(record, f.Company)
	}
	return record, nil
}

func linkInitiative(record Record, id string) {
	if id != "" {
		record[CRMGrantInitiative] = id
	}
}

// Office Hours requests often come from individuals, so a blank company is
// recorded as N/A rather than the applicant's name.
func officeHoursCompany(record Record, company *string) {
	if company == nil || strings.TrimSpace(*company) == "" {
		record[CRMCompany] = companyNotApplicable
	}
}

// TitleHint names uploaded attachments: the project name when the form has
// one, otherwise the applicant's name.
func TitleHint(s Submission) string {
	if name, ok := FormValues(s)["projectName"].(string); ok && name != "" {
		return name
	}
	c := s.Contact()
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// FormValues flattens a submission into form field name to value. Nil
// optional fields are present with a nil value.
func FormValues(s Submission) map[string]interface{} {
	out := map[string]interface{}{}
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}
	collectValues(v, out)
	return out
}

func collectValues(v reflect.Value, out map[string]interface{}) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			collectValues(fv, out)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name := jsonName(sf)
		if name == "" {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				out[name] = nil
				continue
			}
			fv = fv.Elem()
		}
		out[name] = fv.Interface()
	}
}

// fieldNames lists the json names a schema declares.
func fieldNames(s Submission) map[string]struct{} {
	names := map[string]struct{}{}
	for name := range FormValues(s) {
		names[name] = struct{}{}
	}
	return names
}

func jsonName(sf reflect.StructField) string {
	name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
