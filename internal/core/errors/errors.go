// Package errors provides the failure taxonomy shared by the resolution and
// enrichment pipelines.
//
// Every failure that crosses a package boundary is carried as an *Error with a
// Code from the taxonomy below. Whether an error is worth retrying is a
// property of its Code alone, never of the call site; the retry executor keys
// on Code.Retryable.
//
// Naming conventions:
//   - Use Wrap with %w-compatible causes so errors.Is/As keep working
//   - Classify converts arbitrary transport errors into taxonomy members
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Code identifies a member of the failure taxonomy.
type Code string

const (
	// CodeNetworkTimeout indicates a network operation exceeded its deadline.
	CodeNetworkTimeout Code = "network_timeout"

	// CodeNetwork indicates a generic network failure (DNS, connection reset, ...).
	CodeNetwork Code = "network_error"

	// CodeRateLimited indicates the upstream host throttled us.
	CodeRateLimited Code = "rate_limited"

	// CodeAuthFailed indicates authentication or authorization was rejected.
	CodeAuthFailed Code = "auth_failed"

	// CodeBadRequest indicates the request itself was malformed or the
	// resource is permanently unavailable.
	CodeBadRequest Code = "bad_request"

	// CodeUpstreamServer indicates a 5xx-class failure on the remote side.
	CodeUpstreamServer Code = "upstream_server_error"

	// CodeParseFailure indicates a JSON/HTML/XML payload could not be parsed.
	CodeParseFailure Code = "parse_failure"

	// CodeRedirectLoop indicates a redirect chain revisited a URL.
	CodeRedirectLoop Code = "redirect_loop"

	// CodeRedirectBudget indicates the redirect hop budget was exhausted.
	CodeRedirectBudget Code = "redirect_budget_exceeded"

	// CodeBatchItem isolates a single failed element of a batch operation.
	CodeBatchItem Code = "batch_item_failed"

	// CodeStorageConnection indicates the backing store was unreachable.
	CodeStorageConnection Code = "storage_connection_failed"

	// CodeStorageConstraint indicates a storage constraint violation.
	CodeStorageConstraint Code = "storage_constraint_violation"
)

// retryableCodes is the single source of truth for retryability.
var retryableCodes = map[Code]bool{
	CodeNetworkTimeout:    true,
	CodeNetwork:           true,
	CodeRateLimited:       true,
	CodeUpstreamServer:    true,
	CodeStorageConnection: true,
}

// Retryable reports whether operations failing with this code may be retried.
func (c Code) Retryable() bool {
	return retryableCodes[c]
}

// Error is a classified failure with an operation context for logging.
type Error struct {
	Code      Code
	Message   string
	Context   string
	Cause     error
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Context, e.Code, e.Cause)
	}

	return fmt.Sprintf("%s: %s: %s", e.Context, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether this error may be retried.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// New creates a taxonomy error without an underlying cause.
func New(code Code, message, opContext string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Context:   opContext,
		Timestamp: time.Now(),
	}
}

// Wrap creates a taxonomy error around an underlying cause.
func Wrap(code Code, cause error, opContext string) *Error {
	return &Error{
		Code:      code,
		Message:   cause.Error(),
		Context:   opContext,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// CodeOf extracts the taxonomy code from err, unwrapping as needed.
func CodeOf(err error) (Code, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}

	return "", false
}

// IsRetryable reports whether err carries a retryable taxonomy code.
// Unclassified errors are not retried.
func IsRetryable(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}

	return code.Retryable()
}

// Classify wraps an arbitrary error into the taxonomy. Already-classified
// errors pass through unchanged.
func Classify(err error, opContext string) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(CodeNetworkTimeout, err, opContext)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(CodeNetworkTimeout, err, opContext)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return Wrap(CodeNetworkTimeout, err, opContext)
	}

	return Wrap(CodeNetwork, err, opContext)
}

// ClassifyStatus maps an HTTP status code into the taxonomy. Statuses that do
// not indicate a failure return nil.
func ClassifyStatus(status int, opContext string) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return New(CodeRateLimited, fmt.Sprintf("http status %d", status), opContext)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return New(CodeAuthFailed, fmt.Sprintf("http status %d", status), opContext)
	case status >= 500:
		return New(CodeUpstreamServer, fmt.Sprintf("http status %d", status), opContext)
	case status >= 400:
		return New(CodeBadRequest, fmt.Sprintf("http status %d", status), opContext)
	}

	return nil
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
