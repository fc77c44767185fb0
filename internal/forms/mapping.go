package forms

// FieldPair maps one form field onto one CRM field.
type FieldPair struct {
	Form string
	CRM  string
}

const (
	CRMName                  = "Name"
	CRMFirstName             = "Application_FirstName__c"
	CRMLastName              = "Application_LastName__c"
	CRMCompany               = "Application_Company__c"
	CRMProjectDescription    = "Application_ProjectDescription__c"
	CRMProjectRepo           = "Application_ProjectRepo__c"
	CRMDomain                = "Application_Domain__c"
	CRMAdditionalInformation = "Application_AdditionalInformation__c"
	CRMGrantInitiative       = "Grant_Initiative__c"
	CRMStage                 = "Application_Stage__c"
	CRMSource                = "Application_Source__c"
	CRMRecordTypeID          = "RecordTypeId"
)

var contactMapping = []FieldPair{
	{"firstName", CRMFirstName},
	{"lastName", CRMLastName},
	{"email", "Application_Email__c"},
	{"company", CRMCompany},
	{"profileType", "Application_ProfileType__c"},
	{"otherProfileType", "Application_OtherProfileType__c"},
	{"alternativeContact", "Application_AlternativeContact__c"},
	{"country", "Application_Country__c"},
	{"timezone", "Application_Time_Zone__c"},
}

var projectOverviewMapping = []FieldPair{
	{"projectName", CRMName},
	{"projectSummary", CRMProjectDescription},
	{"projectRepo", CRMProjectRepo},
	{"domain", CRMDomain},
	{"output", "Application_Output__c"},
	{"budgetRequest", "Application_RequestedAmount__c"},
	{"currency", "CurrencyIsoCode"},
}

var projectDetailsMapping = []FieldPair{
	{"projectStructure", "Application_ProjectStructure__c"},
	{"sustainabilityPlan", "Application_SustainabilityPlan__c"},
	{"otherFunding", "Application_OtherFunding__c"},
	{"problemBeingSolved", "Application_ProblemBeingSolved__c"},
	{"impactMeasurement", "Application_ImpactMeasurement__c"},
	{"successMetrics", "Application_SuccessMetrics__c"},
	{"ecosystemFit", "Application_EcosystemFit__c"},
	{"communityFeedback", "Application_CommunityFeedback__c"},
	{"openSourceLicense", "Application_OpenSourceLicense__c"},
	{"applicantProfile", "Application_Profile__c"},
}

var additionalDetailsMapping = []FieldPair{
	{"repeatApplicant", "Application_RepeatApplicant__c"},
	{"referral", "Application_Referral__c"},
	{"additionalInfo", CRMAdditionalInformation},
	{"outreachConsent", "Application_OutreachConsent__c"},
}

// Office Hours names the record in post-processing, so projectName is not
// mapped here.
var officeHoursMapping = []FieldPair{
	{"officeHoursRequest", "Application_OfficeHours_RequestType__c"},
	{"officeHoursReason", "Application_OfficeHours_Reason__c"},
	{"projectSummary", CRMProjectDescription},
	{"projectRepo", CRMProjectRepo},
	{"domain", CRMDomain},
	{"additionalInfo", CRMAdditionalInformation},
}

// fieldMappings is read-only after package init.
var fieldMappings = map[FormType][]FieldPair{
	FormTypeRFP:         concat(contactMapping, projectOverviewMapping, additionalDetailsMapping),
	FormTypeWishlist:    concat(contactMapping, projectOverviewMapping, projectDetailsMapping, additionalDetailsMapping),
	FormTypeDirectGrant: concat(contactMapping, projectOverviewMapping, projectDetailsMapping, additionalDetailsMapping),
	FormTypeOfficeHours: concat(contactMapping, officeHoursMapping),
}

const (
	StageNew      = "New"
	SourceWebform = "Webform"
)

var recordTypeIDs = map[FormType]string{
	FormTypeRFP:         "012Vj000008xEVOIA2",
	FormTypeDirectGrant: "012Vj000008xEVNIA2",
	FormTypeWishlist:    "012Vj000008xEVPIA2",
	FormTypeOfficeHours: "012Vj000008z3fVIAQ",
}

// systemFields are never written to a CRM record.
var systemFields = map[string]struct{}{
	"captchaToken": {},
	"fileUpload":   {},
}

// FieldMapping returns a copy of the table for ft.
func FieldMapping(ft FormType) []FieldPair {
	table := fieldMappings[ft]
	out := make([]FieldPair, len(table))
	copy(out, table)
	return out
}

// HardwiredFields returns the constants every record of ft carries.
func HardwiredFields(ft FormType) map[string]interface{} {
	id, ok := recordTypeIDs[ft]
	if !ok {
		return nil
	}
	return map[string]interface{}{
		CRMStage:        StageNew,
		CRMSource:       SourceWebform,
		CRMRecordTypeID: id,
	}
}

// CRMFields lists every CRM field a record of ft can contain.
func CRMFields(ft FormType) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for _, p := range fieldMappings[ft] {
		add(p.CRM)
	}
	if _, ok := recordTypeIDs[ft]; ok {
		add(CRMStage)
		add(CRMSource)
		add(CRMRecordTypeID)
	}
	switch ft {
	case FormTypeRFP, FormTypeWishlist:
		add(CRMGrantInitiative)
	case FormTypeOfficeHours:
		add(CRMName)
	}
	return out
}

func concat(tables ...[]FieldPair) []FieldPair {
	var out []FieldPair
	for _, t := range tables {
		out = append(out, t...)
	}
	return out
}
