// Package api exposes the submission pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"grant-intake/internal/common/errors"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/forms"
	"grant-intake/internal/submission"
)

type Submitter interface {
	Execute(ctx context.Context, input *submission.Input) (*submission.Output, error)
}

type FeedbackRecorder interface {
	Execute(ctx context.Context, input *submission.FeedbackInput) (*submission.FeedbackOutput, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Handlers struct {
	config    *Config
	logger    logger.Logger
	submitter Submitter
	feedback  FeedbackRecorder
	checks    map[string]ReadinessCheck
}

func NewHandlers(cfg *Config, submitter Submitter, feedback FeedbackRecorder, checks map[string]ReadinessCheck, log logger.Logger) (*Handlers, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid api config: %w", err)
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handlers{config: cfg, logger: log, submitter: submitter, feedback: feedback, checks: checks}, nil
}

// Submit returns the handler for one form type.
func (h *Handlers) Submit(ft forms.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, cleanup, err := h.parsePayload(c)
		defer cleanup()
		if err != nil {
			h.renderError(c, errors.NewInvalidRequestError(err))
			return
		}

		out, err := h.submitter.Execute(c.Request.Context(), &submission.Input{
			FormType: ft,
			Payload:  payload,
			ClientIP: c.ClientIP(),
		})
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var input submission.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.renderError(c, errors.NewInvalidRequestError(err))
		return
	}

	out, err := h.feedback.Execute(c.Request.Context(), &input)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck runs every readiness check and reports the failing ones.
func (h *Handlers) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.ReadyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failing := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handlers) renderError(c *gin.Context, err error) {
	status, body := errors.ToResponse(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), h.logger).Error("Request failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err,
		})
	}
	c.JSON(status, body)
}
