// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_submissions_completed_total",
			Help: "Total number of application submissions accepted",
		},
		[]string{"form_type"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_submissions_failed_total",
			Help: "Total number of application submissions rejected or failed",
		},
		[]string{"form_type", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grant_submission_duration_seconds",
			Help:    "Duration of submission processing in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"form_type"},
	)

	SubmissionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grant_submissions_active",
			Help: "Number of submissions currently being processed",
		},
		[]string{"form_type"},
	)

	CaptchaVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captcha_verifications_total",
			Help: "Captcha verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	CRMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Salesforce API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	FollowupTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_tokens_total",
			Help: "Follow-up token operations by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// Outcome renders an error as a metric label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
