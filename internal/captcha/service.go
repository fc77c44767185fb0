// Package captcha verifies client captcha tokens against a siteverify
// endpoint (Cloudflare Turnstile by default, reCAPTCHA compatible).
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	httpclient "grant-intake/internal/common/http"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/metrics"
)

type Service struct {
	config *Config
	logger logger.Logger
	http   *httpclient.Client
}

func NewService(cfg *Config, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid captcha config: %w", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config: cfg,
		logger: log,
		http:   httpclient.NewClient(cfg.Timeout),
	}, nil
}

// Verify returns an Output with Valid false for rejected tokens. The error
// is reserved for the verification endpoint being unreachable or broken.
func (s *Service) Verify(ctx context.Context, input *Input) (*Output, error) {
	if !s.config.Enabled {
		metrics.CaptchaVerifications.WithLabelValues("disabled").Inc()
		return &Output{Valid: true, Message: "Captcha verification disabled", Reason: "DISABLED"}, nil
	}

	token := strings.TrimSpace(input.Token)
	if token == "" {
		metrics.CaptchaVerifications.WithLabelValues("rejected").Inc()
		return &Output{Valid: false, Message: "Captcha token is missing", Reason: "MISSING_TOKEN"}, nil
	}

	form := url.Values{}
	form.Set("secret", s.config.SecretKey)
	form.Set("response", token)
	if input.RemoteIP != "" {
		form.Set("remoteip", input.RemoteIP)
	}

	resp, err := s.post(ctx, form)
	if err != nil {
		metrics.CaptchaVerifications.WithLabelValues("error").Inc()
		s.logger.Error("Captcha verification request failed", map[string]interface{}{"error": err})
		return nil, err
	}

	if !resp.Success {
		metrics.CaptchaVerifications.WithLabelValues("rejected").Inc()
		s.logger.Warn("Captcha token rejected", map[string]interface{}{
			"errorCodes": strings.Join(resp.ErrorCodes, ","),
			"remoteIp":   input.RemoteIP,
		})
		return &Output{
			Valid:      false,
			Message:    "Captcha verification failed",
			Reason:     "REJECTED",
			ErrorCodes: resp.ErrorCodes,
		}, nil
	}

	metrics.CaptchaVerifications.WithLabelValues("verified").Inc()
	return &Output{Valid: true, Message: "Captcha verified successfully", Reason: "SUCCESS"}, nil
}

func (s *Service) post(ctx context.Context, form url.Values) (*siteverifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &httpclient.StatusError{StatusCode: httpResp.StatusCode, Body: string(raw)}
	}

	var out siteverifyResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
