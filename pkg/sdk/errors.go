package sdk

import (
	"errors"
	"fmt"
)

// Login failure kinds. Use errors.Is against a returned *LoginError.
var (
	// ErrCredentialsRejected means the authentication service refused the credential.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrTransport means the authentication service could not be reached or answered unexpectedly.
	ErrTransport = errors.New("authentication service unavailable")
	// ErrMalformedResponse means the authentication service answered with an unusable payload.
	ErrMalformedResponse = errors.New("malformed authentication response")
	// ErrInvalidLoginRequest means the credential failed local validation and was never sent.
	ErrInvalidLoginRequest = errors.New("invalid login request")
	// ErrLoginSuperseded means a logout or a newer login won while this login was in flight.
	ErrLoginSuperseded = errors.New("login superseded")
)

// LoginError is returned by Session.Login and Authenticator implementations.
// Kind is one of the sentinel errors above; Reason carries the remote detail verbatim
// and is never interpreted.
type LoginError struct {
	Kind   error
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoginError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func loginError(kind error, reason string, err error) *LoginError {
	return &LoginError{Kind: kind, Reason: reason, Err: err}
}

// asLoginError normalizes any authenticator failure into a *LoginError.
// Errors of unknown shape are classified as transport failures.
func asLoginError(err error) *LoginError {
	var le *LoginError
	if errors.As(err, &le) {
		return le
	}
	return loginError(ErrTransport, "", err)
}
