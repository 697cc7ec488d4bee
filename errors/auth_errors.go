// errors/auth_errors.go
package errors

import "errors"

// Authorization core taxonomy. Controllers translate these into HTTP codes;
// the core itself never retries and never degrades to "allow".
var (
	// ErrAuthentication covers bad credentials. The message deliberately does
	// not distinguish a missing user from a wrong password.
	ErrAuthentication = errors.New("username or password is incorrect")

	// ErrTokenInvalid covers malformed tokens, bad signatures and registry
	// value mismatches.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired covers natural expiry and registry revocation alike.
	ErrTokenExpired = errors.New("token has expired")

	// ErrAuthorizationDenied covers a valid identity with insufficient rights.
	ErrAuthorizationDenied = errors.New("permission denied")

	// ErrServerError covers misconfiguration and unavailable collaborators
	// (policy engine down, registry unreachable). Authorization fails closed.
	ErrServerError = errors.New("internal server error")
)
