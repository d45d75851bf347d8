package auth

import "errors"

// Login failures. Each is terminal for the attempt.
var (
	ErrTokenRejected = errors.New("token rejected by identity endpoint")
	ErrNoProfile     = errors.New("no CM360 profile for this account")
	ErrAPIForbidden  = errors.New("CM360 API access forbidden")
	ErrTokenExpired  = errors.New("token expired")
	ErrTimeout       = errors.New("timed out validating token")
)

// Message returns the operator-facing text for a login failure.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "Google did not answer in time. Check your connection and try again."
	case errors.Is(err, ErrTokenExpired):
		return "Your access token has expired. Sign in again to get a new one."
	case errors.Is(err, ErrAPIForbidden):
		return "The Campaign Manager 360 API is not enabled for this project or account."
	case errors.Is(err, ErrNoProfile):
		return "This Google account has no Campaign Manager 360 user profile."
	case errors.Is(err, ErrTokenRejected):
		return "Google rejected the access token. Check that it was copied completely."
	default:
		return "Could not connect to Campaign Manager 360."
	}
}

// Reason returns a short label for metrics and API responses.
func Reason(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrAPIForbidden):
		return "api_forbidden"
	case errors.Is(err, ErrNoProfile):
		return "no_profile"
	case errors.Is(err, ErrTokenRejected):
		return "token_rejected"
	default:
		return "error"
	}
}
