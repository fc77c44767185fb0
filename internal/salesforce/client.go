// Package salesforce is a minimal REST client for the operations the intake
// service performs: creating and updating Application records, attaching
// files and describing objects for contract checks.
package salesforce

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	httpclient "grant-intake/internal/common/http"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/metrics"
	"grant-intake/internal/common/observability"
)

// ErrNoInstanceURL is returned when the token response lacks instance_url.
var ErrNoInstanceURL = errors.New("salesforce token response has no instance_url")

type session struct {
	accessToken string
	instanceURL string
}

type Client struct {
	config *Config
	http   *httpclient.Client
	oauth  *oauth2.Config
	logger logger.Logger
	obs    *observability.Observability

	mu      sync.Mutex
	session *session
}

// NewClient validates cfg. It does not log in until the first request.
func NewClient(cfg *Config, log logger.Logger, obs *observability.Observability) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid salesforce config: %w", err)
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Client{
		config: cfg,
		http:   httpclient.NewClient(cfg.Timeout),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.tokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger: log,
		obs:    obs,
	}, nil
}

// TestConnection forces a login.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.currentSession(ctx)
	return err
}

// CreateRecord inserts record as a new objectType row.
func (c *Client) CreateRecord(ctx context.Context, objectType string, record map[string]interface{}) (*SaveResult, error) {
	var result SaveResult
	path := "/sobjects/" + url.PathEscape(objectType) + "/"
	if err := c.do(ctx, "create_record", http.MethodPost, path, record, &result); err != nil {
		return nil, err
	}
	if !result.Success || result.ID == "" {
		return nil, &Error{Operation: "create_record", StatusCode: http.StatusOK, Errors: result.Errors}
	}

	c.logger.Info("Salesforce record created", map[string]interface{}{
		"objectType": objectType,
		"recordId":   result.ID,
	})
	return &result, nil
}

// UpdateRecord patches fields on an existing record.
func (c *Client) UpdateRecord(ctx context.Context, objectType, id string, fields map[string]interface{}) error {
	path := "/sobjects/" + url.PathEscape(objectType) + "/" + url.PathEscape(id)
	return c.do(ctx, "update_record", http.MethodPatch, path, fields, nil)
}

// UploadFile stores the file as a ContentVersion published to relatedRecordID.
func (c *Client) UploadFile(ctx context.Context, file File, relatedRecordID, subjectPrefix, titleHint string) (*UploadResult, error) {
	if file.Path == "" || file.Filename == "" {
		return nil, fmt.Errorf("upload file: path and filename are required")
	}
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", file.Filename, err)
	}

	title := subjectPrefix
	if titleHint != "" {
		title = fmt.Sprintf("%s - %s", subjectPrefix, titleHint)
	}

	body := map[string]interface{}{
		"Title":                  title,
		"PathOnClient":           file.Filename,
		"VersionData":            base64.StdEncoding.EncodeToString(data),
		"FirstPublishLocationId": relatedRecordID,
	}

	var created SaveResult
	if err := c.do(ctx, "upload_file", http.MethodPost, "/sobjects/ContentVersion/", body, &created); err != nil {
		return nil, err
	}
	if !created.Success || created.ID == "" {
		return nil, &Error{Operation: "upload_file", StatusCode: http.StatusOK, Errors: created.Errors}
	}

	result := &UploadResult{Success: true, ContentVersionID: created.ID}

	var version struct {
		ContentDocumentID string `json:"ContentDocumentId"`
	}
	path := "/sobjects/ContentVersion/" + url.PathEscape(created.ID) + "?fields=ContentDocumentId"
	if err := c.do(ctx, "get_content_version", http.MethodGet, path, nil, &version); err != nil {
		// The file is attached; only the document id lookup failed.
		c.logger.Warn("Failed to resolve ContentDocumentId", map[string]interface{}{
			"contentVersionId": created.ID,
			"error":            err.Error(),
		})
		return result, nil
	}
	result.ContentDocumentID = version.ContentDocumentID
	return result, nil
}

// DescribeObject fetches field metadata for objectType.
func (c *Client) DescribeObject(ctx context.Context, objectType string) (*ObjectMetadata, error) {
	var meta ObjectMetadata
	path := "/sobjects/" + url.PathEscape(objectType) + "/describe"
	if err := c.do(ctx, "describe_object", http.MethodGet, path, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, span := c.obs.StartSpan(ctx, "salesforce."+op)
	start := time.Now()

	err := c.doWithSession(ctx, op, method, path, body, out)

	metrics.CRMRequests.WithLabelValues(op, metrics.Outcome(err)).Inc()
	c.obs.RecordCRMRequest(ctx, op, time.Since(start), err)
	observability.EndSpan(span, err)
	return err
}

// doWithSession retries once with a fresh session when the token is rejected.
func (c *Client) doWithSession(ctx context.Context, op, method, path string, body, out interface{}) error {
	for attempt := 0; ; attempt++ {
		s, err := c.currentSession(ctx)
		if err != nil {
			return err
		}

		endpoint := fmt.Sprintf("%s/services/data/%s%s", s.instanceURL, c.config.APIVersion, path)
		headers := map[string]string{"Authorization": "Bearer " + s.accessToken}

		err = c.http.DoJSON(ctx, method, endpoint, headers, body, out)
		if err == nil {
			return nil
		}

		var statusErr *httpclient.StatusError
		if !errors.As(err, &statusErr) {
			return fmt.Errorf("salesforce %s: %w", op, err)
		}
		if statusErr.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.logger.Info("Salesforce session expired, logging in again", map[string]interface{}{"operation": op})
			c.resetSession(s)
			continue
		}
		return &Error{Operation: op, StatusCode: statusErr.StatusCode, Errors: parseAPIErrors(statusErr.Body)}
	}
}

func (c *Client) currentSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http.HTTPClient())
	tok, err := c.oauth.PasswordCredentialsToken(ctx, c.config.Username, c.config.Password+c.config.SecurityToken)
	if err != nil {
		metrics.CRMRequests.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("salesforce login: %w", err)
	}
	instanceURL, _ := tok.Extra("instance_url").(string)
	if instanceURL == "" {
		return nil, ErrNoInstanceURL
	}

	metrics.CRMRequests.WithLabelValues("login", "success").Inc()
	c.session = &session{accessToken: tok.AccessToken, instanceURL: strings.TrimRight(instanceURL, "/")}
	return c.session, nil
}

// resetSession drops stale only if no other request has replaced it yet.
func (c *Client) resetSession(stale *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == stale {
		c.session = nil
	}
}

func parseAPIErrors(body string) []APIError {
	var list []APIError
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list
	}
	var single APIError
	if err := json.Unmarshal([]byte(body), &single); err == nil && single.Message != "" {
		return []APIError{single}
	}
	return nil
}
