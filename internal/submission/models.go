package submission

import (
	"context"

	"grant-intake/internal/audit"
	"grant-intake/internal/captcha"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/observability"
	"grant-intake/internal/followup"
	"grant-intake/internal/forms"
	"grant-intake/internal/notify"
	"grant-intake/internal/salesforce"
)

const SuccessMessage = "Application submitted successfully"

type Input struct {
	FormType forms.FormType
	Payload  forms.Payload
	ClientIP string
}

type Output struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ApplicationID string `json:"applicationId"`
	CSATToken     string `json:"csatToken"`
}

// CRM is the subset of the Salesforce client the pipeline calls.
type CRM interface {
	CreateRecord(ctx context.Context, objectType string, record map[string]interface{}) (*salesforce.SaveResult, error)
	UploadFile(ctx context.Context, file salesforce.File, relatedRecordID, subjectPrefix, titleHint string) (*salesforce.UploadResult, error)
	UpdateRecord(ctx context.Context, objectType, id string, fields map[string]interface{}) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, input *captcha.Input) (*captcha.Output, error)
}

type TokenIssuer interface {
	Generate(ctx context.Context, applicationID string) (string, error)
}

type TokenRedeemer interface {
	Consume(ctx context.Context, token string) (*followup.Claims, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) (string, error)
}

// ServiceDependencies wires the pipeline's collaborators. Audit and Notifier
// are optional.
type ServiceDependencies struct {
	Logger        logger.Logger
	CRM           CRM
	Captcha       CaptchaVerifier
	Tokens        TokenIssuer
	Audit         AuditRecorder
	Notifier      notify.Notifier
	Observability *observability.Observability
}
