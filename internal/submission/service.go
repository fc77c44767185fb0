// Package submission runs a form submission from raw payload to CRM record:
// sanitize, captcha, validate, map, create, upload, issue follow-up token.
package submission

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"grant-intake/internal/audit"
	"grant-intake/internal/captcha"
	"grant-intake/internal/common/errors"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/metrics"
	"grant-intake/internal/common/observability"
	"grant-intake/internal/forms"
	"grant-intake/internal/notify"
	"grant-intake/internal/salesforce"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	crm      CRM
	captcha  CaptchaVerifier
	tokens   TokenIssuer
	audit    AuditRecorder
	notifier notify.Notifier
	obs      *observability.Observability
	now      func() time.Time
}

func NewService(deps ServiceDependencies, cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid submission config: %w", err)
	}
	if deps.CRM == nil || deps.Captcha == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("crm, captcha and token collaborators are required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}
	return &Service{
		config:   cfg,
		logger:   deps.Logger,
		crm:      deps.CRM,
		captcha:  deps.Captcha,
		tokens:   deps.Tokens,
		audit:    deps.Audit,
		notifier: deps.Notifier,
		obs:      deps.Observability,
		now:      time.Now,
	}, nil
}

// Execute processes one submission. Every returned error is an
// *errors.StandardError suitable for errors.ToResponse.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ft := input.FormType
	if !ft.Valid() {
		return nil, errors.NewConfigurationError(fmt.Sprintf("unknown form type %q", ft))
	}
	label := string(ft)

	start := s.now()
	metrics.SubmissionsActive.WithLabelValues(label).Inc()
	defer metrics.SubmissionsActive.WithLabelValues(label).Dec()

	ctx, span := s.obs.StartSpan(ctx, "submission."+ft.Slug(), attribute.String("form_type", label))
	log := logger.FromContext(ctx, s.logger).WithFields(map[string]interface{}{"formType": label})

	out, stage, err := s.run(ctx, log, input)

	observability.EndSpan(span, err)
	metrics.SubmissionDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		code := errors.CodeOf(err)
		retryable := errors.IsRetryable(err)
		metrics.SubmissionsFailed.WithLabelValues(label, string(code)).Inc()
		log.Warn("Submission failed", map[string]interface{}{
			"stage":     stage.state,
			"errorCode": string(code),
			"retryable": retryable,
			"error":     err,
		})
		s.recordAudit(ctx, log, audit.Entry{
			FormType:      label,
			ApplicationID: stage.applicationID,
			Status:        auditStatus(code),
			ErrorCode:     string(code),
			Details:       map[string]interface{}{"stage": stage.state, "retryable": retryable},
		})
		return nil, err
	}

	metrics.SubmissionsCompleted.WithLabelValues(label).Inc()
	log.Info("Submission completed", map[string]interface{}{
		"applicationId": out.ApplicationID,
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return out, nil
}

// progress tracks how far a submission got, for logging and the audit row.
type progress struct {
	state         string
	applicationID string
}

func (s *Service) run(ctx context.Context, log logger.Logger, input *Input) (*Output, *progress, error) {
	p := &progress{state: "received"}
	ft := input.FormType

	payload := Sanitize(input.Payload)
	p.state = "sanitized"

	if err := s.verifyCaptcha(ctx, payload, input.ClientIP); err != nil {
		return nil, p, err
	}
	p.state = "captcha-verified"

	sub, err := s.validate(ctx, payload, ft)
	if err != nil {
		return nil, p, err
	}
	p.state = "validated"

	applicationID, err := s.createRecord(ctx, sub)
	if err != nil {
		return nil, p, err
	}
	p.state = "crm-record-created"
	p.applicationID = applicationID
	log = log.WithFields(map[string]interface{}{"applicationId": applicationID})

	uploaded := false
	if file := sub.Upload(); file != nil {
		if err := s.uploadFile(ctx, sub, file, applicationID); err != nil {
			return nil, p, err
		}
		uploaded = true
		p.state = "file-uploaded"
	}

	token, err := s.issueToken(ctx, applicationID)
	if err != nil {
		return nil, p, err
	}
	p.state = "token-generated"

	s.recordAudit(ctx, log, audit.Entry{
		FormType:      string(ft),
		ApplicationID: applicationID,
		Status:        audit.StatusSubmitted,
		Details:       map[string]interface{}{"fileUploaded": uploaded},
	})
	s.notify(ctx, log, sub, applicationID, uploaded)

	p.state = "responded"
	return &Output{
		Success:       true,
		Message:       SuccessMessage,
		ApplicationID: applicationID,
		CSATToken:     token,
	}, p, nil
}

func (s *Service) verifyCaptcha(ctx context.Context, payload forms.Payload, clientIP string) error {
	ctx, span := s.obs.StartSpan(ctx, "submission.captcha")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	token, _ := payload["captchaToken"].(string)
	out, verr := s.captcha.Verify(ctx, &captcha.Input{Token: token, RemoteIP: clientIP})
	if verr != nil {
		err = errors.NewCaptchaUnavailableError(verr)
		return err
	}
	if !out.Valid {
		err = errors.NewCaptchaFailedError(out.Reason)
		return err
	}
	return nil
}

func (s *Service) validate(ctx context.Context, payload forms.Payload, ft forms.FormType) (forms.Submission, error) {
	_, span := s.obs.StartSpan(ctx, "submission.validate")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	sub, result, verr := forms.Validate(payload, ft)
	if verr != nil {
		err = errors.NewConfigurationError(verr.Error())
		return nil, err
	}
	if !result.Valid {
		span.SetAttributes(attribute.StringSlice("invalid_fields", result.Fields()))
		err = errors.NewValidationError(result.Tree())
		return nil, err
	}
	return sub, nil
}

func (s *Service) createRecord(ctx context.Context, sub forms.Submission) (string, error) {
	ctx, span := s.obs.StartSpan(ctx, "submission.create_record")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	record, merr := forms.BuildApplicationRecord(sub)
	if merr != nil {
		err = errors.NewConfigurationError(merr.Error())
		return "", err
	}

	res, cerr := s.crm.CreateRecord(ctx, s.config.ObjectType, record)
	if cerr != nil {
		err = errors.NewCRMCreateFailedError(cerr)
		return "", err
	}
	return res.ID, nil
}

func (s *Service) uploadFile(ctx context.Context, sub forms.Submission, file *forms.FileUpload, applicationID string) error {
	if file.Filepath == "" || file.OriginalFilename == "" {
		return errors.NewInvalidFileUploadError("file is missing its path or original filename")
	}

	ctx, span := s.obs.StartSpan(ctx, "submission.upload_file", attribute.Int64("size", file.Size))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	ft := sub.FormType()
	_, uerr := s.crm.UploadFile(ctx,
		salesforce.File{Path: file.Filepath, Filename: file.OriginalFilename},
		applicationID, ft.SubjectPrefix(), forms.TitleHint(sub))
	if uerr != nil {
		// The record stays in the CRM without its attachment.
		err = errors.NewFileUploadFailedError(applicationID, uerr)
		return err
	}
	s.obs.RecordUpload(ctx, string(ft), file.Size)
	return nil
}

func (s *Service) issueToken(ctx context.Context, applicationID string) (string, error) {
	ctx, span := s.obs.StartSpan(ctx, "submission.issue_token")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	token, terr := s.tokens.Generate(ctx, applicationID)
	if terr != nil {
		err = errors.NewTokenFailedError(terr)
		return "", err
	}
	return token, nil
}

func (s *Service) recordAudit(ctx context.Context, log logger.Logger, entry audit.Entry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, entry); err != nil {
		log.Warn("audit record failed", map[string]interface{}{"error": err})
	}
}

func (s *Service) notify(ctx context.Context, log logger.Logger, sub forms.Submission, applicationID string, uploaded bool) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	defer cancel()

	contact := sub.Contact()
	event := notify.Event{
		ApplicationID: applicationID,
		FormType:      string(sub.FormType()),
		FormLabel:     sub.FormType().SubjectPrefix(),
		Title:         forms.TitleHint(sub),
		FirstName:     contact.FirstName,
		Email:         contact.Email,
		FileUploaded:  uploaded,
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.notifier.ApplicationSubmitted(ctx, event); err != nil {
		log.Warn("notification failed", map[string]interface{}{"error": err})
	}
}

func auditStatus(code errors.ErrorCode) string {
	if errors.HTTPStatus(code) < 500 {
		return audit.StatusRejected
	}
	return audit.StatusFailed
}
