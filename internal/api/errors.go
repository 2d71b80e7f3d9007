package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures from the watermark service into the branches
// callers actually act on. The service speaks a dual-channel contract: HTTP
// status codes for transport/auth/quota problems, and a 200 body carrying
// {"success": false, "error": CODE} for business rejections. Both channels
// normalize into *APIError before anything downstream sees them.
type ErrorKind int

const (
	// KindTransport covers network failures and unexpected server errors.
	KindTransport ErrorKind = iota
	// KindAuth covers 401/403 responses.
	KindAuth
	// KindQuota is an HTTP 402: the plan's quota is spent. Not retryable;
	// callers route to an upgrade path and stop spending.
	KindQuota
	// KindBusiness is a rule rejection delivered in a 200 body with a
	// stable code (WATERMARK_EXISTS, INVALID_IMAGE, ...). Not retryable.
	KindBusiness
)

// Business rejection codes returned by the service.
const (
	CodeWatermarkExists = "WATERMARK_EXISTS"
	CodeInvalidImage    = "INVALID_IMAGE"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeEmbedFailed     = "EMBED_FAILED"
	CodeDetectFailed    = "DETECT_FAILED"
)

// APIError is the normalized error for every failed remote operation.
type APIError struct {
	Kind       ErrorKind
	Code       string // stable business code, empty for transport errors
	Message    string
	HTTPStatus int
	// QuotaDeducted reports whether the failed attempt still consumed
	// quota server-side; nil when the server did not say.
	QuotaDeducted *bool
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("http %d: %s", e.HTTPStatus, e.Message)
	default:
		return e.Message
	}
}

// IsQuotaExhausted reports whether err is a quota-exhaustion (402) failure.
func IsQuotaExhausted(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindQuota
}

// BusinessCode returns the stable rejection code carried by err, or "".
func BusinessCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// QuotaDeducted extracts the server's quota-deduction report from err.
// The second return is false when the server left it unknown.
func QuotaDeducted(err error) (deducted, known bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.QuotaDeducted != nil {
		return *apiErr.QuotaDeducted, true
	}
	return false, false
}

func statusKind(status int) ErrorKind {
	switch status {
	case http.StatusPaymentRequired:
		return KindQuota
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	default:
		return KindTransport
	}
}
