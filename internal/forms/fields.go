package forms

import (
	"github.com/go-playground/validator/v10"

	"grant-intake/internal/common/validation"
)

const (
	MinTextAreaLength = 500
	MaxTextAreaLength = 2000

	// MaxFileSize is the upload limit for attachments, in bytes.
	MaxFileSize = 4 * 1024 * 1024
	PDFMimeType = "application/pdf"
)

const ProfileTypeOther = "Other"

var ProfileTypes = []string{
	"Individual",
	"Team",
	"Company",
	"Non-profit organization",
	"Academic institution",
	"DAO",
	"Government",
	ProfileTypeOther,
}

var Domains = []string{
	"Consensus layer",
	"Execution layer",
	"Cryptography",
	"Zero-knowledge proofs",
	"Layer 2",
	"Developer tooling",
	"Security",
	"Privacy",
	"Account abstraction",
	"Data availability",
	"Client diversity",
	"Staking",
	"Community and education",
	"Research",
	"Public goods",
	"Other",
}

var Outputs = []string{
	"Research paper",
	"Software",
	"Community event",
	"Educational content",
	"Other",
}

const (
	OfficeHoursAdvice          = "Advice"
	OfficeHoursProjectFeedback = "Project Feedback"
)

func init() {
	enums := map[string][]string{
		"profile_type_enum": ProfileTypes,
		"domain_enum":       Domains,
		"output_enum":       Outputs,
	}
	for tag, values := range enums {
		if err := validation.RegisterEnum(tag, values); err != nil {
			panic(err)
		}
	}
	validation.RegisterStructRule(contactRules, ContactFields{})
}

// FileUpload describes a file already written to local disk by the HTTP layer.
type FileUpload struct {
	Filepath         string `json:"filepath"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimetype" validate:"eq=application/pdf"`
	Size             int64  `json:"size" validate:"max=4194304"`
}

// ContactFields is shared by every form.
type ContactFields struct {
	FirstName          string  `json:"firstName" validate:"required,min=1,max=40,nourl"`
	LastName           string  `json:"lastName" validate:"required,min=1,max=40,nourl"`
	Email              string  `json:"email" validate:"required,email,max=255"`
	Company            *string `json:"company" validate:"omitempty,max=255,nourl"`
	ProfileType        string  `json:"profileType" validate:"required,profile_type_enum"`
	OtherProfileType   *string `json:"otherProfileType" validate:"omitempty,max=255"`
	AlternativeContact *string `json:"alternativeContact" validate:"omitempty,max=255"`
	Country            string  `json:"country" validate:"required,len=2"`
	Timezone           string  `json:"timezone" validate:"required"`
}

func contactRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(ContactFields)
	if c.ProfileType == ProfileTypeOther && (c.OtherProfileType == nil || *c.OtherProfileType == "") {
		sl.ReportError(c.OtherProfileType, "otherProfileType", "OtherProfileType", "required", "")
	}
}

// ProjectOverviewFields is shared by RFP, Wishlist and Direct Grant.
type ProjectOverviewFields struct {
	ProjectName    string  `json:"projectName" validate:"required,min=1,max=80"`
	ProjectSummary string  `json:"projectSummary" validate:"required,min=500,max=2000"`
	ProjectRepo    *string `json:"projectRepo" validate:"omitempty,url,max=255"`
	Domain         string  `json:"domain" validate:"required,domain_enum"`
	Output         string  `json:"output" validate:"required,output_enum"`
	BudgetRequest  float64 `json:"budgetRequest" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"required"`
}

// ProjectDetailsFields is shared by Wishlist and Direct Grant.
type ProjectDetailsFields struct {
	ProjectStructure   string `json:"projectStructure" validate:"required,min=500,max=2000"`
	SustainabilityPlan string `json:"sustainabilityPlan" validate:"required,min=500,max=2000"`
	OtherFunding       string `json:"otherFunding" validate:"required,min=500,max=2000"`
	ProblemBeingSolved string `json:"problemBeingSolved" validate:"required,min=500,max=2000"`
	ImpactMeasurement  string `json:"impactMeasurement" validate:"required,min=500,max=2000"`
	SuccessMetrics     string `json:"successMetrics" validate:"required,min=500,max=2000"`
	EcosystemFit       string `json:"ecosystemFit" validate:"required,min=500,max=2000"`
	CommunityFeedback  string `json:"communityFeedback" validate:"required,min=500,max=2000"`
	OpenSourceLicense  string `json:"openSourceLicense" validate:"required,min=1,max=255"`
	ApplicantProfile   string `json:"applicantProfile" validate:"required,min=500,max=2000"`
}

// AdditionalDetailsFields holds the closing section of the long forms.
// Referral is declared per form since its optionality differs.
type AdditionalDetailsFields struct {
	RepeatApplicant bool    `json:"repeatApplicant"`
	AdditionalInfo  *string `json:"additionalInfo" validate:"omitempty,max=2000"`
	OutreachConsent bool    `json:"outreachConsent"`
}

// booleanDefaults are applied when the payload omits the key entirely.
var booleanDefaults = map[string]bool{
	"repeatApplicant": false,
	"outreachConsent": true,
}
