// Package backend talks to the remote user and subscription API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/common/errors"
	httpclient "mintslip-workers/internal/common/http"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/models"

	"github.com/sony/gobreaker"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL   string
	http      *httpclient.Client
	retryHTTP *httpclient.Client
	breaker   *gobreaker.CircuitBreaker
	logger    logger.Logger
}

// serverError is a 5xx response. It trips the breaker; 4xx responses do not.
type serverError struct {
	status  int
	message string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.status, e.message)
}

func NewClient(cfg config.BackendConfig, log logger.Logger, opts ...httpclient.Option) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpclient.NewClient(timeout, opts...),
		retryHTTP: httpclient.NewClient(timeout, append([]httpclient.Option{httpclient.WithRetries(retries, 500*time.Millisecond)}, opts...)...),
		logger:    log.WithFields(map[string]interface{}{"component": "backend-client"}),
	}
	c.breaker = gobreaker.NewCircuitBreaker(breakerSettings(cfg.Breaker, c.logger))
	return c
}

func breakerSettings(cfg config.BreakerConfig, log logger.Logger) gobreaker.Settings {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}

	return gobreaker.Settings{
		Name:        "backend",
		MaxRequests: maxRequests,
		Interval:    config.GetDuration(cfg.Interval),
		Timeout:     config.GetDuration(cfg.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.BackendBreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}
}

// State exposes the breaker state for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/api/user/login", "", creds, &out); err != nil {
		return nil, asAuthFailure(err)
	}
	if out.Token == "" {
		return nil, errors.NewAuthenticationFailedError("backend returned no token")
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/api/user/signup", "", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.NewAuthenticationFailedError("backend returned no token")
	}
	return &out, nil
}

// Me fetches the current user. The backend answers either with the user
// object or with {"user": {...}}.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, c.http, http.MethodGet, "/api/user/me", token, nil, &raw); err != nil {
		return nil, asAuthFailure(err)
	}

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, errors.NewBackendRequestFailedError(http.StatusOK, "").WithMetadata("decode", err.Error())
	}
	return &user, nil
}

type DownloadResult struct {
	Success            bool   `json:"success"`
	DownloadsRemaining int    `json:"downloads_remaining"`
	Message            string `json:"message,omitempty"`
}

// ConsumeDownload decrements the subscription quota by one.
func (c *Client) ConsumeDownload(ctx context.Context, token, documentType string) (*DownloadResult, error) {
	var out DownloadResult
	body := map[string]string{"documentType": documentType}
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/api/user/subscription-download", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SavedDocument struct {
	DocumentType string            `json:"documentType"`
	Template     string            `json:"template"`
	FileName     string            `json:"fileName"`
	DownloadURL  string            `json:"downloadUrl,omitempty"`
	FormData     map[string]string `json:"formData,omitempty"`
}

type SavedDocumentResult struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

func (c *Client) SaveDocument(ctx context.Context, token string, doc SavedDocument) (*SavedDocumentResult, error) {
	var out SavedDocumentResult
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/api/user/saved-documents", token, doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ResponsibilitiesRequest struct {
	JobTitle    string `json:"jobTitle"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
}

// GenerateResponsibilities asks the backend for resume bullet points. Transport
// failures are retried with backoff.
func (c *Client) GenerateResponsibilities(ctx context.Context, token string, req ResponsibilitiesRequest) ([]string, error) {
	var out struct {
		Responsibilities []string `json:"responsibilities"`
	}
	if err := c.doJSON(ctx, c.retryHTTP, http.MethodPost, "/api/generate-responsibilities", token, req, &out); err != nil {
		return nil, err
	}
	return out.Responsibilities, nil
}

func (c *Client) ScrapeJob(ctx context.Context, token, jobURL string) (*models.JobPosting, error) {
	var out models.JobPosting
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/api/scrape-job", token, map[string]string{"url": jobURL}, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		out.URL = jobURL
	}
	return &out, nil
}

// ParseResume uploads a resume file as multipart form data.
func (c *Client) ParseResume(ctx context.Context, token, fileName, contentType string, content []byte) (*models.ParsedResume, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parse-resume", &buf)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out models.ParsedResume
	if err := c.send(ctx, c.http, req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CheckoutStatus struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (c *Client) CheckoutStatus(ctx context.Context, token, sessionID string) (*CheckoutStatus, error) {
	var out CheckoutStatus
	path := "/api/stripe/checkout-status/" + url.PathEscape(sessionID)
	if err := c.doJSON(ctx, c.http, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, hc *httpclient.Client, method, path, token string, payload, out interface{}) error {
	req, err := httpclient.NewJSONRequest(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return errors.NewInternalError(err)
	}
	return c.send(ctx, hc, req, token, out)
}

func (c *Client) send(ctx context.Context, hc *httpclient.Client, req *http.Request, token string, out interface{}) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := hc.DoWithContext(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &serverError{status: resp.StatusCode, message: backendMessage(body)}
		}
		return resp, nil
	})
	if err != nil {
		return c.mapError(req, err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := backendMessage(body)
		c.logger.Warn("backend request rejected", map[string]interface{}{
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		})
		return errors.NewBackendRequestFailedError(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.NewBackendRequestFailedError(resp.StatusCode, "").WithMetadata("decode", err.Error())
	}
	return nil
}

func (c *Client) mapError(req *http.Request, err error) error {
	var srvErr *serverError
	switch {
	case stderrors.As(err, &srvErr):
		c.logger.Warn("backend server error", map[string]interface{}{
			"path":   req.URL.Path,
			"status": srvErr.status,
		})
		return errors.NewBackendRequestFailedError(srvErr.status, srvErr.message)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewBackendUnavailableError(err).WithMetadata("breaker", c.breaker.State().String())
	default:
		c.logger.Error("backend unreachable", map[string]interface{}{
			"path":  req.URL.Path,
			"error": err.Error(),
		})
		return errors.NewBackendUnavailableError(err)
	}
}

// backendMessage pulls a human readable message out of an error body.
func backendMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	return ""
}

// asAuthFailure turns 400/401 rejections on auth endpoints into
// AUTHENTICATION_FAILED, keeping the backend's message.
func asAuthFailure(err error) error {
	stdErr, ok := errors.AsStandardError(err)
	if !ok || stdErr.Code != errors.ErrCodeBackendRequestFailed {
		return err
	}
	status, _ := stdErr.Metadata["status"].(int)
	if status != http.StatusUnauthorized && status != http.StatusBadRequest && status != http.StatusForbidden {
		return err
	}
	authErr := errors.NewAuthenticationFailedError(stdErr.Details).WithMetadata("status", status)
	authErr.Message = stdErr.Message
	return authErr
}
