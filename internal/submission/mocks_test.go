package submission

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"grant-intake/internal/audit"
	"grant-intake/internal/captcha"
	"grant-intake/internal/followup"
	"grant-intake/internal/forms"
	"grant-intake/internal/notify"
	"grant-intake/internal/salesforce"
)

// ==========================
// Mock collaborators
// ==========================

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) CreateRecord(ctx context.Context, objectType string, record map[string]interface{}) (*salesforce.SaveResult, error) {
	args := m.Called(ctx, objectType, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesforce.SaveResult), args.Error(1)
}

func (m *MockCRM) UploadFile(ctx context.Context, file salesforce.File, relatedRecordID, subjectPrefix, titleHint string) (*salesforce.UploadResult, error) {
	args := m.Called(ctx, file, relatedRecordID, subjectPrefix, titleHint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesforce.UploadResult), args.Error(1)
}

func (m *MockCRM) UpdateRecord(ctx context.Context, objectType, id string, fields map[string]interface{}) error {
	return m.Called(ctx, objectType, id, fields).Error(0)
}

type MockCaptcha struct {
	mock.Mock
}

func (m *MockCaptcha) Verify(ctx context.Context, input *captcha.Input) (*captcha.Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*captcha.Output), args.Error(1)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Generate(ctx context.Context, applicationID string) (string, error) {
	args := m.Called(ctx, applicationID)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Consume(ctx context.Context, token string) (*followup.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*followup.Claims), args.Error(1)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, entry audit.Entry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ApplicationSubmitted(ctx context.Context, event notify.Event) error {
	return m.Called(ctx, event).Error(0)
}

// ==========================
// Payload helpers
// ==========================

func longText(n int) string {
	return strings.Repeat("a", n)
}

func contactPayload() forms.Payload {
	return forms.Payload{
		"firstName":    "  Ada ",
		"lastName":     "Lovelace",
		"email":        "ada@example.org",
		"company":      "",
		"profileType":  "Individual",
		"country":      "GB",
		"timezone":     "Europe/London",
		"captchaToken": "turnstile-token",
	}
}

func overviewPayload() forms.Payload {
	return forms.Payload{
		"projectName":    "Light client",
		"projectSummary": longText(600),
		"projectRepo":    "https://github.com/example/light-client",
		"domain":         "Layer 2",
		"output":         "Software",
		"budgetRequest":  "12,500",
		"currency":       "USD",
	}
}

func detailsPayload() forms.Payload {
	p := forms.Payload{"openSourceLicense": "MIT"}
	for _, f := range []string{
		"projectStructure", "sustainabilityPlan", "otherFunding", "problemBeingSolved",
		"impactMeasurement", "successMetrics", "ecosystemFit", "communityFeedback", "applicantProfile",
	} {
		p[f] = longText(500)
	}
	return p
}

func merge(parts ...forms.Payload) forms.Payload {
	out := forms.Payload{}
	for _, p := range parts {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

func pdfUpload() *forms.FileUpload {
	return &forms.FileUpload{
		Filepath:         "/tmp/uploads/abc123",
		OriginalFilename: "proposal.pdf",
		MimeType:         forms.PDFMimeType,
		Size:             2048,
	}
}

func wishlistPayload() forms.Payload {
	return merge(contactPayload(), overviewPayload(), detailsPayload(), forms.Payload{
		"selectedWishlistId": "wish-7",
		"outreachConsent":    "on",
		"fileUpload":         pdfUpload(),
	})
}

func rfpPayload() forms.Payload {
	return merge(contactPayload(), overviewPayload(), forms.Payload{
		"referral":      "Newsletter",
		"selectedRFPId": "rfp-1",
	})
}

func advicePayload() forms.Payload {
	return merge(contactPayload(), forms.Payload{
		"officeHoursRequest": forms.OfficeHoursAdvice,
		"officeHoursReason":  "Scoping a grant",
	})
}
