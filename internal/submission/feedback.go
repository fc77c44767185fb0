package submission

import (
	"context"
	stderrors "errors"
	"fmt"

	"grant-intake/internal/audit"
	"grant-intake/internal/common/errors"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/observability"
	"grant-intake/internal/common/validation"
	"grant-intake/internal/followup"
)

const (
	CRMCSATRating   = "Application_CSAT_Rating__c"
	CRMCSATFeedback = "Application_CSAT_Feedback__c"

	FeedbackMessage = "Thank you for your feedback"
)

type FeedbackInput struct {
	Token    string  `json:"token" validate:"required"`
	Rating   int     `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type FeedbackOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var feedbackMessages = map[string]string{
	"rating.required": "Rating must be between 1 and 5",
	"rating.gte":      "Rating must be between 1 and 5",
	"rating.lte":      "Rating must be between 1 and 5",
}

// FeedbackService redeems a follow-up token and stores the satisfaction
// rating on the application it was issued for.
type FeedbackService struct {
	config *Config
	logger logger.Logger
	crm    CRM
	tokens TokenRedeemer
	audit  AuditRecorder
	obs    *observability.Observability
}

func NewFeedbackService(cfg *Config, crm CRM, tokens TokenRedeemer, auditRecorder AuditRecorder, log logger.Logger, obs *observability.Observability) (*FeedbackService, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid submission config: %w", err)
	}
	if crm == nil || tokens == nil {
		return nil, fmt.Errorf("crm and token collaborators are required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &FeedbackService{config: cfg, logger: log, crm: crm, tokens: tokens, audit: auditRecorder, obs: obs}, nil
}

// Execute consumes the token before writing. A failed CRM update therefore
// burns the token; the applicant cannot retry with it.
func (s *FeedbackService) Execute(ctx context.Context, input *FeedbackInput) (*FeedbackOutput, error) {
	ctx, span := s.obs.StartSpan(ctx, "feedback.record")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	result, verr := validation.ValidateStruct(input, feedbackMessages)
	if verr != nil {
		err = errors.NewInternalError(verr)
		return nil, err
	}
	if !result.Valid {
		err = errors.NewValidationError(result.Tree())
		return nil, err
	}

	claims, cerr := s.tokens.Consume(ctx, input.Token)
	if cerr != nil {
		if stderrors.Is(cerr, followup.ErrInvalidToken) {
			err = errors.NewInvalidTokenError(cerr.Error())
		} else {
			err = errors.NewInternalError(cerr)
		}
		return nil, err
	}

	fields := map[string]interface{}{CRMCSATRating: input.Rating}
	if input.Feedback != nil {
		fields[CRMCSATFeedback] = validation.StripURLs(*input.Feedback)
	}
	if uerr := s.crm.UpdateRecord(ctx, s.config.ObjectType, claims.ApplicationID, fields); uerr != nil {
		err = errors.NewCRMUpdateFailedError(uerr)
		s.logger.Error("Failed to record feedback", map[string]interface{}{
			"applicationId": claims.ApplicationID,
			"error":         uerr,
		})
		return nil, err
	}

	if s.audit != nil {
		if _, aerr := s.audit.Record(ctx, audit.Entry{
			FormType:      "csat",
			ApplicationID: claims.ApplicationID,
			Status:        audit.StatusFeedback,
			Details:       map[string]interface{}{"rating": input.Rating},
		}); aerr != nil {
			s.logger.Warn("audit record failed", map[string]interface{}{"error": aerr})
		}
	}

	s.logger.Info("Feedback recorded", map[string]interface{}{
		"applicationId": claims.ApplicationID,
		"rating":        input.Rating,
	})
	return &FeedbackOutput{Success: true, Message: FeedbackMessage}, nil
}
