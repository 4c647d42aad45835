// Package errors provides standardized error handling for BPMN workflow integration
// and for the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// validation
	ErrCodeFormValidationFailed ErrorCode = "FORM_VALIDATION_FAILED"
	ErrCodeInputParsingFailed   ErrorCode = "INPUT_PARSING_FAILED"

	// network / backend
	ErrCodeBackendUnavailable    ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendRequestFailed  ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeAuthenticationFailed  ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeFormSessionNotFound   ErrorCode = "FORM_SESSION_NOT_FOUND"
	ErrCodeDocumentNotFound      ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeWizardStepIncomplete  ErrorCode = "WIZARD_STEP_INCOMPLETE"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalServiceFailed ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout               ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"

	// payment
	ErrCodePaymentFailed              ErrorCode = "PAYMENT_FAILED"
	ErrCodePaymentCancelled           ErrorCode = "PAYMENT_CANCELLED"
	ErrCodePaymentPending             ErrorCode = "PAYMENT_PENDING"
	ErrCodePaymentProviderUnsupported ErrorCode = "PAYMENT_PROVIDER_UNSUPPORTED"

	// file handling
	ErrCodeFileRejected ErrorCode = "FILE_REJECTED"

	// subscription
	ErrCodeSubscriptionInactive    ErrorCode = "SUBSCRIPTION_INACTIVE"
	ErrCodeDownloadQuotaExhausted  ErrorCode = "DOWNLOAD_QUOTA_EXHAUSTED"
	ErrCodeSubscriptionCheckFailed ErrorCode = "SUBSCRIPTION_CHECK_FAILED"

	// templates and rendering
	ErrCodeTemplateNotFound      ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeRenderFailed          ErrorCode = "RENDER_FAILED"
	ErrCodePDFGenerationFailed   ErrorCode = "PDF_GENERATION_FAILED"
	ErrCodeArchiveCreationFailed ErrorCode = "ARCHIVE_CREATION_FAILED"

	// pricing
	ErrCodeCouponInvalid ErrorCode = "COUPON_INVALID"

	// infrastructure
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseQueryFailed    ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeSearchQueryFailed      ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchIndexFailed      ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCacheUnavailable       ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewFormValidationFailedError reports missing or malformed form fields.
func NewFormValidationFailedError(details string) *StandardError {
	return newError(ErrCodeFormValidationFailed, "Form validation failed", details, false)
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", detailsOf(err), false)
}

// NewBackendUnavailableError covers transport failures and an open circuit breaker.
func NewBackendUnavailableError(err error) *StandardError {
	return newError(ErrCodeBackendUnavailable, "Backend service is unavailable", detailsOf(err), false)
}

// NewBackendRequestFailedError carries the backend-provided message, or a generic
// fallback when the backend sent none.
func NewBackendRequestFailedError(status int, backendMessage string) *StandardError {
	msg := backendMessage
	if msg == "" {
		msg = "Request failed, please try again"
	}
	return newError(ErrCodeBackendRequestFailed, msg, fmt.Sprintf("status: %d", status), false).
		WithMetadata("status", status)
}

func NewAuthenticationFailedError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false)
}

func NewSessionNotFoundError() *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found or expired", "", false)
}

func NewFormSessionNotFoundError(id string) *StandardError {
	return newError(ErrCodeFormSessionNotFound, "Form session not found", fmt.Sprintf("formSessionId: %s", id), false)
}

func NewDocumentNotFoundError(id string) *StandardError {
	return newError(ErrCodeDocumentNotFound, "Document not found", fmt.Sprintf("documentId: %s", id), false)
}

// NewWizardStepIncompleteError is returned when Next is requested while required
// fields of the current step are empty.
func NewWizardStepIncompleteError(step int, missing []string) *StandardError {
	return newError(ErrCodeWizardStepIncomplete, "Complete the required fields to continue",
		fmt.Sprintf("step: %d, missing: %v", step, missing), false).
		WithMetadata("missingFields", missing)
}

// NewPaymentFailedError maps any provider error to the generic user-facing message.
func NewPaymentFailedError(provider string, err error) *StandardError {
	return newError(ErrCodePaymentFailed, "Payment failed, please try again",
		fmt.Sprintf("provider: %s, error: %s", provider, detailsOf(err)), false)
}

func NewPaymentCancelledError(provider, reference string) *StandardError {
	return newError(ErrCodePaymentCancelled, "Payment was cancelled",
		fmt.Sprintf("provider: %s, reference: %s", provider, reference), false)
}

func NewPaymentPendingError(provider, reference string) *StandardError {
	return newError(ErrCodePaymentPending, "Payment is not completed yet",
		fmt.Sprintf("provider: %s, reference: %s", provider, reference), false)
}

func NewPaymentProviderUnsupportedError(provider string) *StandardError {
	return newError(ErrCodePaymentProviderUnsupported, "Unsupported payment provider",
		fmt.Sprintf("provider: %s", provider), false)
}

func NewFileRejectedError(details string) *StandardError {
	return newError(ErrCodeFileRejected, "File was rejected", details, false)
}

func NewSubscriptionInactiveError(status string) *StandardError {
	return newError(ErrCodeSubscriptionInactive, "No active subscription", fmt.Sprintf("status: %s", status), false)
}

func NewDownloadQuotaExhaustedError() *StandardError {
	return newError(ErrCodeDownloadQuotaExhausted, "No downloads remaining on this subscription", "", false)
}

func NewSubscriptionCheckFailedError(err error) *StandardError {
	return newError(ErrCodeSubscriptionCheckFailed, "Subscription check failed", detailsOf(err), false)
}

// NewTemplateNotFoundError reports an unknown document type or template identifier.
func NewTemplateNotFoundError(documentType, templateID string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "Template not found in registry",
		fmt.Sprintf("documentType: %s, templateId: %s", documentType, templateID), false)
}

func NewRenderFailedError(err error) *StandardError {
	return newError(ErrCodeRenderFailed, "Document rendering failed", detailsOf(err), false)
}

func NewPDFGenerationFailedError(err error) *StandardError {
	return newError(ErrCodePDFGenerationFailed, "PDF generation failed", detailsOf(err), false)
}

func NewArchiveCreationFailedError(err error) *StandardError {
	return newError(ErrCodeArchiveCreationFailed, "Archive creation failed", detailsOf(err), false)
}

func NewCouponInvalidError(code string) *StandardError {
	return newError(ErrCodeCouponInvalid, "Coupon code is invalid or expired", fmt.Sprintf("coupon: %s", code), false)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", detailsOf(err), true)
}

// NewDatabaseQueryFailedError creates a retryable query error.
func NewDatabaseQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, detailsOf(err)), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, detailsOf(err)), true)
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Elasticsearch indexing error",
		fmt.Sprintf("index: %s, error: %s", index, detailsOf(err)), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, detailsOf(err)), true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache is unavailable", detailsOf(err), true)
}

// Generic constructors

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalServiceFailed, fmt.Sprintf("External service '%s' error", service), detailsOf(err), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), detailsOf(err), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// AsStandardError finds a *StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// GetRetryCount returns the Zeebe retry budget for an error code. Only
// infrastructure failures are retried; anything user-facing is terminal.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseInsertFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeCacheUnavailable:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN error codes are identical to internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeFormValidationFailed, ErrCodeInputParsingFailed, ErrCodeWizardStepIncomplete:
		return "VALIDATION"
	case ErrCodeBackendUnavailable, ErrCodeBackendRequestFailed, ErrCodeAuthenticationFailed,
		ErrCodeSessionNotFound, ErrCodeExternalServiceFailed, ErrCodeTimeout, ErrCodeRateLimited:
		return "NETWORK"
	case ErrCodePaymentFailed, ErrCodePaymentCancelled, ErrCodePaymentPending, ErrCodePaymentProviderUnsupported:
		return "PAYMENT"
	case ErrCodeFileRejected:
		return "FILE"
	case ErrCodeSubscriptionInactive, ErrCodeDownloadQuotaExhausted, ErrCodeSubscriptionCheckFailed:
		return "SUBSCRIPTION"
	case ErrCodeTemplateNotFound, ErrCodeRenderFailed, ErrCodePDFGenerationFailed, ErrCodeArchiveCreationFailed:
		return "TEMPLATE"
	case ErrCodeCouponInvalid:
		return "PRICING"
	case ErrCodeFormSessionNotFound, ErrCodeDocumentNotFound, ErrCodeResourceNotFound:
		return "NOT_FOUND"
	case ErrCodeDatabaseInsertFailed, ErrCodeDatabaseQueryFailed, ErrCodeSearchQueryFailed,
		ErrCodeSearchIndexFailed, ErrCodeNotificationSendFailed, ErrCodeCacheUnavailable:
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeFormValidationFailed, ErrCodeWizardStepIncomplete:
		return http.StatusUnprocessableEntity
	case ErrCodeInputParsingFailed, ErrCodeFileRejected, ErrCodeCouponInvalid, ErrCodePaymentProviderUnsupported:
		return http.StatusBadRequest
	case ErrCodeAuthenticationFailed, ErrCodeSessionNotFound:
		return http.StatusUnauthorized
	case ErrCodeSubscriptionInactive, ErrCodeDownloadQuotaExhausted:
		return http.StatusForbidden
	case ErrCodePaymentFailed, ErrCodePaymentCancelled:
		return http.StatusPaymentRequired
	case ErrCodePaymentPending:
		return http.StatusAccepted
	case ErrCodeTemplateNotFound, ErrCodeFormSessionNotFound, ErrCodeDocumentNotFound, ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeBackendRequestFailed, ErrCodeSubscriptionCheckFailed, ErrCodeExternalServiceFailed:
		return http.StatusBadGateway
	case ErrCodeBackendUnavailable, ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
