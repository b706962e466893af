package auth

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"gfauth/internal/transport"
)

var (
	// ErrAttemptsExceeded is returned once the overall captcha budget is spent.
	ErrAttemptsExceeded = errors.New("max captcha attempts exceeded")

	// ErrMalformedChallengeHeader means a 409 came without a usable gf-challenge-id.
	ErrMalformedChallengeHeader = errors.New("malformed gf-challenge-id header")

	// ErrMalformedResponse means a 2xx body did not carry a token.
	ErrMalformedResponse = errors.New("malformed auth response")
)

// UnexpectedStatusError is any non-2xx, non-409 login response.
type UnexpectedStatusError struct {
	Status  int
	Headers transport.Headers
	Err     error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected auth response status: %d", e.Status)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// IsInvalidCredentials reports whether the server rejected the account itself.
func IsInvalidCredentials(err error) bool {
	var statusErr *UnexpectedStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == 401 || statusErr.Status == 403
	}
	return false
}

// retryableErrorPatterns contains error message substrings that indicate retryable errors.
var retryableErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"context deadline exceeded",
	"TLS handshake timeout",
	"EOF",
	"malformed HTTP response",
	"transport connection broken",
	"use of closed network connection",
	"proxy responded with non 200 code",
}

// IsRetryable reports whether err is a transient failure worth retrying with
// another connection. Protocol errors and a spent captcha budget never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAttemptsExceeded) || errors.Is(err, ErrMalformedChallengeHeader) || errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var statusErr *UnexpectedStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == 429 || statusErr.Status >= 500
	}

	if isNetworkTimeout(err) {
		return true
	}
	return containsRetryablePattern(err.Error())
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func containsRetryablePattern(errStr string) bool {
	for _, pattern := range retryableErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
