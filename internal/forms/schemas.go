package forms

// Submission is the validated, typed form data for one FormType.
type Submission interface {
	FormType() FormType
	Contact() ContactFields
	// Upload returns the attached file, or nil when none was submitted.
	Upload() *FileUpload
}

type RFPForm struct {
	ContactFields
	ProjectOverviewFields
	AdditionalDetailsFields
	Referral      string      `json:"referral" validate:"required,min=1,max=255"`
	SelectedRFPID string      `json:"selectedRFPId" validate:"required,min=1,max=255"`
	CaptchaToken  string      `json:"captchaToken" validate:"required"`
	FileUpload    *FileUpload `json:"fileUpload" validate:"omitempty"`
}

func (f *RFPForm) FormType() FormType     { return FormTypeRFP }
func (f *RFPForm) Contact() ContactFields { return f.ContactFields }
func (f *RFPForm) Upload() *FileUpload    { return f.FileUpload }

type WishlistForm struct {
	ContactFields
	ProjectOverviewFields
	ProjectDetailsFields
	AdditionalDetailsFields
	Referral           *string     `json:"referral" validate:"omitempty,min=1,max=255"`
	SelectedWishlistID string      `json:"selectedWishlistId" validate:"required,min=1,max=255"`
	CaptchaToken       string      `json:"captchaToken" validate:"required"`
	FileUpload         *FileUpload `json:"fileUpload" validate:"required"`
}

func (f *WishlistForm) FormType() FormType     { return FormTypeWishlist }
func (f *WishlistForm) Contact() ContactFields { return f.ContactFields }
func (f *WishlistForm) Upload() *FileUpload    { return f.FileUpload }

type DirectGrantForm struct {
	ContactFields
	ProjectOverviewFields
	ProjectDetailsFields
	AdditionalDetailsFields
	Referral     string      `json:"referral" validate:"required,min=1,max=255"`
	CaptchaToken string      `json:"captchaToken" validate:"required"`
	FileUpload   *FileUpload `json:"fileUpload" validate:"omitempty"`
}

func (f *DirectGrantForm) FormType() FormType     { return FormTypeDirectGrant }
func (f *DirectGrantForm) Contact() ContactFields { return f.ContactFields }
func (f *DirectGrantForm) Upload() *FileUpload    { return f.FileUpload }

// OfficeHoursForm is the Office Hours union. Exactly one of
// *OfficeHoursAdviceForm and *OfficeHoursFeedbackForm implements it.
type OfficeHoursForm interface {
	Submission
	RequestType() string
}

// officeHoursEnvelope carries only the discriminator.
type officeHoursEnvelope struct {
	OfficeHoursRequest string `json:"officeHoursRequest"`
}

type OfficeHoursAdviceForm struct {
	ContactFields
	OfficeHoursRequest string `json:"officeHoursRequest" validate:"required,eq=Advice"`
	OfficeHoursReason  string `json:"officeHoursReason" validate:"required,min=1,max=2000"`
	CaptchaToken       string `json:"captchaToken" validate:"required"`
}

func (f *OfficeHoursAdviceForm) FormType() FormType     { return FormTypeOfficeHours }
func (f *OfficeHoursAdviceForm) Contact() ContactFields { return f.ContactFields }
func (f *OfficeHoursAdviceForm) Upload() *FileUpload    { return nil }
func (f *OfficeHoursAdviceForm) RequestType() string    { return OfficeHoursAdvice }

type OfficeHoursFeedbackForm struct {
	ContactFields
	OfficeHoursRequest string      `json:"officeHoursRequest" validate:"required,eq=Project Feedback"`
	OfficeHoursReason  string      `json:"officeHoursReason" validate:"required,min=1,max=2000"`
	ProjectName        string      `json:"projectName" validate:"required,min=1,max=80"`
	ProjectSummary     string      `json:"projectSummary" validate:"required,min=1,max=2000"`
	ProjectRepo        string      `json:"projectRepo" validate:"required,url,max=255"`
	Domain             string      `json:"domain" validate:"required,domain_enum"`
	AdditionalInfo     *string     `json:"additionalInfo" validate:"omitempty,max=2000"`
	CaptchaToken       string      `json:"captchaToken" validate:"required"`
	FileUpload         *FileUpload `json:"fileUpload" validate:"omitempty"`
}

func (f *OfficeHoursFeedbackForm) FormType() FormType     { return FormTypeOfficeHours }
func (f *OfficeHoursFeedbackForm) Contact() ContactFields { return f.ContactFields }
func (f *OfficeHoursFeedbackForm) Upload() *FileUpload    { return f.FileUpload }
func (f *OfficeHoursFeedbackForm) RequestType() string    { return OfficeHoursProjectFeedback }

// newSchema returns an empty value of the schema for ft. Office Hours needs
// the discriminator first and is resolved by newOfficeHoursSchema.
func newSchema(ft FormType) Submission {
	switch ft {
	case FormTypeRFP:
		return &RFPForm{}
	case FormTypeWishlist:
		return &WishlistForm{}
	case FormTypeDirectGrant:
		return &DirectGrantForm{}
	default:
		return nil
	}
}

func newOfficeHoursSchema(request string) OfficeHoursForm {
	switch request {
	case OfficeHoursAdvice:
		return &OfficeHoursAdviceForm{}
	case OfficeHoursProjectFeedback:
		return &OfficeHoursFeedbackForm{}
	default:
		return nil
	}
}

// schemaSamples lists one zero value per concrete schema, used to check that
// mapping tables only reference declared fields.
func schemaSamples(ft FormType) []Submission {
	if ft == FormTypeOfficeHours {
		return []Submission{&OfficeHoursAdviceForm{}, &OfficeHoursFeedbackForm{}}
	}
	if s := newSchema(ft); s != nil {
		return []Submission{s}
	}
	return nil
}
