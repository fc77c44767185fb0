package submission

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grant-intake/internal/audit"
	"grant-intake/internal/captcha"
	"grant-intake/internal/common/errors"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/forms"
	"grant-intake/internal/notify"
	"grant-intake/internal/salesforce"
)

type fixture struct {
	crm      *MockCRM
	captcha  *MockCaptcha
	tokens   *MockTokens
	audit    *MockAudit
	notifier *MockNotifier
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		crm:      &MockCRM{},
		captcha:  &MockCaptcha{},
		tokens:   &MockTokens{},
		audit:    &MockAudit{},
		notifier: &MockNotifier{},
	}
	svc, err := NewService(ServiceDependencies{
		Logger:   logger.NewTestLogger(t),
		CRM:      f.crm,
		Captcha:  f.captcha,
		Tokens:   f.tokens,
		Audit:    f.audit,
		Notifier: f.notifier,
	}, DefaultConfig())
	require.NoError(t, err)
	f.service = svc
	return f
}

func (f *fixture) captchaPasses() {
	f.captcha.On("Verify", mock.Anything, &captcha.Input{Token: "turnstile-token", RemoteIP: "203.0.113.9"}).
		Return(&captcha.Output{Valid: true, Reason: "SUCCESS"}, nil)
}

func (f *fixture) auditAccepts() {
	f.audit.On("Record", mock.Anything, mock.Anything).Return("audit-1", nil)
}

func (f *fixture) assertAll(t *testing.T) {
	f.crm.AssertExpectations(t)
	f.captcha.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func auditWith(status, code, applicationID string) interface{} {
	return mock.MatchedBy(func(e audit.Entry) bool {
		return e.Status == status && e.ErrorCode == code && e.ApplicationID == applicationID
	})
}

func auditRetryable(status, code, applicationID string, retryable bool) interface{} {
	return mock.MatchedBy(func(e audit.Entry) bool {
		return e.Status == status && e.ErrorCode == code && e.ApplicationID == applicationID &&
			e.Details["retryable"] == retryable
	})
}

// ==========================
// Construction
// ==========================

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceDependencies{}, nil)
	assert.Error(t, err)

	_, err = NewService(ServiceDependencies{CRM: &MockCRM{}, Captcha: &MockCaptcha{}, Tokens: &MockTokens{}},
		&Config{ObjectType: ""})
	assert.Error(t, err)
}

// ==========================
// Happy paths
// ==========================

func TestExecute_WishlistWithFile(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()

	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.MatchedBy(func(r map[string]interface{}) bool {
		return r[forms.CRMRecordTypeID] == "012Vj000008xEVPIA2" &&
			r[forms.CRMGrantInitiative] == "wish-7" &&
			r[forms.CRMCompany] == "Ada Lovelace" &&
			r["Application_FirstName__c"] == "Ada" &&
			r["Application_RequestedAmount__c"] == 12500.0 &&
			r["Application_OutreachConsent__c"] == true
	})).Return(&salesforce.SaveResult{ID: "a0X1", Success: true}, nil)

	f.crm.On("UploadFile", mock.Anything,
		salesforce.File{Path: "/tmp/uploads/abc123", Filename: "proposal.pdf"},
		"a0X1", "Wishlist", "Light client",
	).Return(&salesforce.UploadResult{Success: true, ContentDocumentID: "069D1"}, nil)

	f.tokens.On("Generate", mock.Anything, "a0X1").Return("csat-token", nil)
	f.audit.On("Record", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.Status == audit.StatusSubmitted && e.ApplicationID == "a0X1" && e.Details["fileUploaded"] == true
	})).Return("audit-1", nil)
	f.notifier.On("ApplicationSubmitted", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.ApplicationID == "a0X1" && e.Email == "ada@example.org" && e.FormLabel == "Wishlist" && e.FileUploaded
	})).Return(nil)

	out, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeWishlist,
		Payload:  wishlistPayload(),
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Equal(t, &Output{
		Success:       true,
		Message:       "Application submitted successfully",
		ApplicationID: "a0X1",
		CSATToken:     "csat-token",
	}, out)
	f.assertAll(t)
}

func TestExecute_RFPWithoutFileSkipsUpload(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.auditAccepts()
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X2", Success: true}, nil)
	f.tokens.On("Generate", mock.Anything, "a0X2").Return("csat-token", nil)
	f.notifier.On("ApplicationSubmitted", mock.Anything, mock.Anything).Return(nil)

	out, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeRFP,
		Payload:  rfpPayload(),
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Equal(t, "a0X2", out.ApplicationID)
	f.crm.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_OfficeHoursAdvice(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.auditAccepts()
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.MatchedBy(func(r map[string]interface{}) bool {
		return r[forms.CRMName] == "Ada, Lovelace" && r[forms.CRMCompany] == "N/A"
	})).Return(&salesforce.SaveResult{ID: "a0X3", Success: true}, nil)
	f.tokens.On("Generate", mock.Anything, "a0X3").Return("csat-token", nil)
	f.notifier.On("ApplicationSubmitted", mock.Anything, mock.Anything).Return(nil)

	payload := advicePayload()
	payload["fileUpload"] = pdfUpload()

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeOfficeHours,
		Payload:  payload,
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)
	f.crm.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_NonCriticalFailuresIgnored(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X4", Success: true}, nil)
	f.tokens.On("Generate", mock.Anything, "a0X4").Return("csat-token", nil)
	f.audit.On("Record", mock.Anything, mock.Anything).Return("", stderrors.New("db down"))
	f.notifier.On("ApplicationSubmitted", mock.Anything, mock.Anything).Return(stderrors.New("ses throttled"))

	out, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeRFP,
		Payload:  rfpPayload(),
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestExecute_WithoutOptionalCollaborators(t *testing.T) {
	crm, verifier, tokens := &MockCRM{}, &MockCaptcha{}, &MockTokens{}
	svc, err := NewService(ServiceDependencies{CRM: crm, Captcha: verifier, Tokens: tokens}, nil)
	require.NoError(t, err)

	verifier.On("Verify", mock.Anything, mock.Anything).Return(&captcha.Output{Valid: true}, nil)
	crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X5", Success: true}, nil)
	tokens.On("Generate", mock.Anything, "a0X5").Return("csat-token", nil)

	_, err = svc.Execute(context.Background(), &Input{FormType: forms.FormTypeRFP, Payload: rfpPayload()})
	require.NoError(t, err)
}

// ==========================
// Failure paths
// ==========================

func TestExecute_CaptchaRejected(t *testing.T) {
	f := newFixture(t)
	f.captcha.On("Verify", mock.Anything, mock.Anything).
		Return(&captcha.Output{Valid: false, Reason: "REJECTED"}, nil)
	f.audit.On("Record", mock.Anything, auditWith(audit.StatusRejected, "CAPTCHA_FAILED", "")).Return("audit-1", nil)

	out, err := f.service.Execute(context.Background(), &Input{FormType: forms.FormTypeRFP, Payload: rfpPayload()})
	assert.Nil(t, out)
	assert.Equal(t, errors.ErrCodeCaptchaFailed, errors.CodeOf(err))

	status, body := errors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Captcha verification failed", body["error"])
	assert.NotContains(t, body, "details")
	f.crm.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestExecute_CaptchaUnavailable(t *testing.T) {
	f := newFixture(t)
	f.auditAccepts()
	f.captcha.On("Verify", mock.Anything, mock.Anything).Return(nil, stderrors.New("dial tcp: timeout"))

	_, err := f.service.Execute(context.Background(), &Input{FormType: forms.FormTypeRFP, Payload: rfpPayload()})
	assert.Equal(t, errors.ErrCodeCaptchaUnavailable, errors.CodeOf(err))

	status, _ := errors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExecute_ValidationFailed(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.audit.On("Record", mock.Anything, auditRetryable(audit.StatusRejected, "VALIDATION_FAILED", "", false)).Return("audit-1", nil)

	payload := wishlistPayload()
	delete(payload, "fileUpload")
	payload["email"] = "not-an-email"

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeWishlist,
		Payload:  payload,
		ClientIP: "203.0.113.9",
	})

	status, body := errors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["error"])

	details, ok := body["details"].(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Invalid email"}, details["email"])
	assert.Equal(t, []string{"A PDF file is required"}, details["fileUpload"])
	f.crm.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestExecute_SanitizedURLNameFailsValidation(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.auditAccepts()

	payload := rfpPayload()
	payload["firstName"] = "https://spam.example"

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeRFP,
		Payload:  payload,
		ClientIP: "203.0.113.9",
	})

	_, body := errors.ToResponse(err)
	details := body["details"].(map[string][]string)
	assert.Equal(t, []string{"Required"}, details["firstName"])
}

func TestExecute_CRMCreateFailed(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.audit.On("Record", mock.Anything, auditRetryable(audit.StatusFailed, "CRM_CREATE_FAILED", "", true)).Return("audit-1", nil)
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(nil, &salesforce.Error{Operation: "create_record", StatusCode: 400,
			Errors: []salesforce.APIError{{ErrorCode: "INVALID_FIELD", Message: "secret internals"}}})

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeRFP,
		Payload:  rfpPayload(),
		ClientIP: "203.0.113.9",
	})

	status, body := errors.ToResponse(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]interface{}{"error": "Failed to submit application"}, body)

	var sfErr *salesforce.Error
	assert.True(t, stderrors.As(err, &sfErr), "cause is kept for logging")
	f.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestExecute_FileWithoutPathIsRejectedAfterCreate(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.audit.On("Record", mock.Anything, auditWith(audit.StatusRejected, "INVALID_FILE_UPLOAD", "a0X6")).Return("audit-1", nil)
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X6", Success: true}, nil)

	payload := wishlistPayload()
	upload := pdfUpload()
	upload.Filepath = ""
	payload["fileUpload"] = upload

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeWishlist,
		Payload:  payload,
		ClientIP: "203.0.113.9",
	})

	status, _ := errors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errors.ErrCodeInvalidFileUpload, errors.CodeOf(err))
	f.crm.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestExecute_UploadFailedKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.audit.On("Record", mock.Anything, auditRetryable(audit.StatusFailed, "FILE_UPLOAD_FAILED", "a0X7", true)).Return("audit-1", nil)
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X7", Success: true}, nil)
	f.crm.On("UploadFile", mock.Anything, mock.Anything, "a0X7", "Wishlist", "Light client").
		Return(nil, stderrors.New("storage limit exceeded"))

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeWishlist,
		Payload:  wishlistPayload(),
		ClientIP: "203.0.113.9",
	})

	status, body := errors.ToResponse(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to upload file", body["error"])

	var se *errors.StandardError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, "a0X7", se.Metadata["applicationId"])
	f.crm.AssertNotCalled(t, "UpdateRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestExecute_TokenFailed(t *testing.T) {
	f := newFixture(t)
	f.captchaPasses()
	f.audit.On("Record", mock.Anything, auditRetryable(audit.StatusFailed, "TOKEN_GENERATION_FAILED", "a0X8", false)).Return("audit-1", nil)
	f.crm.On("CreateRecord", mock.Anything, "Application__c", mock.Anything).
		Return(&salesforce.SaveResult{ID: "a0X8", Success: true}, nil)
	f.tokens.On("Generate", mock.Anything, "a0X8").Return("", stderrors.New("entropy exhausted"))

	_, err := f.service.Execute(context.Background(), &Input{
		FormType: forms.FormTypeRFP,
		Payload:  rfpPayload(),
		ClientIP: "203.0.113.9",
	})

	status, body := errors.ToResponse(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to submit application", body["error"])
	f.assertAll(t)
}

func TestExecute_UnknownFormType(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Execute(context.Background(), &Input{FormType: "newsletter", Payload: forms.Payload{}})
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
	f.captcha.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}
