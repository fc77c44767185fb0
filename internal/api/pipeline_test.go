package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grant-intake/internal/captcha"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/followup"
	"grant-intake/internal/forms"
	"grant-intake/internal/salesforce"
	"grant-intake/internal/submission"
)

// salesforceStub records what the pipeline writes to the CRM.
type salesforceStub struct {
	mu       sync.Mutex
	created  []map[string]interface{}
	updates  map[string]map[string]interface{}
	versions []map[string]interface{}
}

func newSalesforceStub(t *testing.T) (*salesforceStub, *httptest.Server) {
	stub := &salesforceStub{updates: map[string]map[string]interface{}{}}
	mux := http.NewServeMux()
	var srv *httptest.Server

	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	decode := func(r *http.Request) map[string]interface{} {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return body
	}

	mux.HandleFunc("/services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": "session",
			"instance_url": srv.URL,
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/services/data/v59.0/sobjects/Application__c/", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			stub.created = append(stub.created, decode(r))
			writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "a0X000000000042", "success": true, "errors": []string{}})
		case http.MethodPatch:
			id := strings.TrimPrefix(r.URL.Path, "/services/data/v59.0/sobjects/Application__c/")
			stub.updates[id] = decode(r)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/services/data/v59.0/sobjects/ContentVersion/", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()

		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]string{"ContentDocumentId": "069000000000007"})
			return
		}
		stub.versions = append(stub.versions, decode(r))
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "068000000000007", "success": true, "errors": []string{}})
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return stub, srv
}

func newPipelineRouter(t *testing.T) (*gin.Engine, *salesforceStub) {
	t.Helper()
	log := logger.NewTestLogger(t)
	stub, srv := newSalesforceStub(t)

	sf, err := salesforce.NewClient(&salesforce.Config{
		LoginURL:     srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Username:     "integration@example.org",
		Password:     "hunter2",
		APIVersion:   "v59.0",
		Timeout:      5 * time.Second,
	}, log, nil)
	require.NoError(t, err)

	verifier, err := captcha.NewService(&captcha.Config{Enabled: false, Timeout: time.Second}, log)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens, err := followup.NewService(&followup.Config{
		Secret:    strings.Repeat("k", 32),
		TTL:       time.Hour,
		KeyPrefix: "followup:used:",
	}, rdb, log)
	require.NoError(t, err)

	submitter, err := submission.NewService(submission.ServiceDependencies{
		Logger:  log,
		CRM:     sf,
		Captcha: verifier,
		Tokens:  tokens,
	}, nil)
	require.NoError(t, err)

	feedback, err := submission.NewFeedbackService(nil, sf, tokens, nil, log, nil)
	require.NoError(t, err)

	return newTestRouter(t, submitter, feedback, nil), stub
}

func rfpJSON() map[string]interface{} {
	return map[string]interface{}{
		"firstName":      "Ada",
		"lastName":       "Lovelace",
		"email":          "ada@example.org",
		"profileType":    "Individual",
		"country":        "GB",
		"timezone":       "Europe/London",
		"captchaToken":   "unused-when-disabled",
		"projectName":    "Difference engine",
		"projectSummary": strings.Repeat("a", 600),
		"domain":         "Research",
		"output":         "Software",
		"budgetRequest":  "12,000",
		"currency":       "GBP",
		"referral":       "Newsletter",
		"selectedRFPId":  "rfp-9",
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return serve(router, req)
}

// ==========================
// Full pipeline
// ==========================

func TestPipeline_RFPThenFeedback(t *testing.T) {
	router, stub := newPipelineRouter(t)

	rec, body := postJSON(t, router, "/api/rfp", rfpJSON())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, submission.SuccessMessage, body["message"])
	assert.Equal(t, "a0X000000000042", body["applicationId"])
	token, _ := body["csatToken"].(string)
	require.NotEmpty(t, token)

	require.Len(t, stub.created, 1)
	record := stub.created[0]
	assert.Equal(t, "Difference engine", record[forms.CRMName])
	assert.Equal(t, "rfp-9", record[forms.CRMGrantInitiative])
	assert.Equal(t, 12000.0, record["Application_RequestedAmount__c"])
	assert.NotContains(t, record, "captchaToken")
	assert.Empty(t, stub.versions, "no file was sent")

	rec, body = postJSON(t, router, "/api/csat", map[string]interface{}{
		"token":    token,
		"rating":   5,
		"feedback": "Quick and clear, see https://example.org",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, submission.FeedbackMessage, body["message"])

	update := stub.updates["a0X000000000042"]
	require.NotNil(t, update)
	assert.Equal(t, 5.0, update[submission.CRMCSATRating])
	assert.NotContains(t, update[submission.CRMCSATFeedback], "https://")

	rec, body = postJSON(t, router, "/api/csat", map[string]interface{}{"token": token, "rating": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestPipeline_ValidationFailureCreatesNothing(t *testing.T) {
	router, stub := newPipelineRouter(t)

	payload := rfpJSON()
	payload["email"] = "not-an-email"
	payload["projectSummary"] = "too short"

	rec, body := postJSON(t, router, "/api/rfp", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok, body)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "projectSummary")
	assert.Empty(t, stub.created)
}

func TestPipeline_WishlistMultipartUploadsFile(t *testing.T) {
	router, stub := newPipelineRouter(t)

	fields := map[string]string{
		"firstName":          "Ada",
		"lastName":           "Lovelace",
		"email":              "ada@example.org",
		"profileType":        "Individual",
		"country":            "GB",
		"timezone":           "Europe/London",
		"captchaToken":       "unused-when-disabled",
		"projectName":        "Notes on the engine",
		"projectSummary":     strings.Repeat("b", 600),
		"domain":             "Research",
		"output":             "Research paper",
		"budgetRequest":      "800",
		"currency":           "USD",
		"selectedWishlistId": "wish-3",
		"projectStructure":   strings.Repeat("c", 500),
		"sustainabilityPlan": strings.Repeat("c", 500),
		"otherFunding":       strings.Repeat("c", 500),
		"problemBeingSolved": strings.Repeat("c", 500),
		"impactMeasurement":  strings.Repeat("c", 500),
		"successMetrics":     strings.Repeat("c", 500),
		"ecosystemFit":       strings.Repeat("c", 500),
		"communityFeedback":  strings.Repeat("c", 500),
		"openSourceLicense":  "Apache-2.0",
		"applicantProfile":   strings.Repeat("c", 500),
		"outreachConsent":    "on",
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	content := []byte("%PDF-1.7\n%proposal")
	part, err := w.CreateFormFile("fileUpload", "proposal.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/wishlist", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec, body := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "a0X000000000042", body["applicationId"])

	require.Len(t, stub.versions, 1)
	version := stub.versions[0]
	assert.Equal(t, "Wishlist - Notes on the engine", version["Title"])
	assert.Equal(t, "proposal.pdf", version["PathOnClient"])
	assert.Equal(t, "a0X000000000042", version["FirstPublishLocationId"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), version["VersionData"])

	require.Len(t, stub.created, 1)
	assert.Equal(t, true, stub.created[0]["Application_OutreachConsent__c"])
}
