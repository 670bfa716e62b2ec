package sdk

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// LoginRequest is the credential sent to the authentication service.
// Field names on the wire follow the backend ("correo", "password").
type LoginRequest struct {
	Email    string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request locally before any network call.
func (r LoginRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return loginError(ErrInvalidLoginRequest, "", err)
	}
	return nil
}

// AuthResult is a successful authentication: a validated identity and its session token.
type AuthResult struct {
	Identity    *Identity
	Credentials *Credentials
}

// Authenticator verifies a credential against the remote authentication service.
// Implementations must return a *LoginError (or an error wrapping one) on failure,
// and a result with a non-nil Identity and Credentials on success.
type Authenticator interface {
	Authenticate(ctx context.Context, req LoginRequest) (*AuthResult, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, req LoginRequest) (*AuthResult, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	return f(ctx, req)
}

// identityPayload is the "user" object of the token response.
type identityPayload struct {
	ID          any      `mapstructure:"id"`
	Email       string   `mapstructure:"correo"`
	Names       string   `mapstructure:"nombres"`
	IsSuperuser bool     `mapstructure:"is_superuser"`
	Roles       []string `mapstructure:"roles"`
	Permissions []string `mapstructure:"permisos"`
}

// DecodeIdentity validates the untyped user payload returned by the authentication service
// and converts it into an Identity. Any shape violation is reported as ErrMalformedResponse.
//
// Supported shape:
//
//	{"id": 7, "correo": "a@x.com", "nombres": "Ana", "is_superuser": false,
//	 "roles": ["nutricionista"], "permisos": ["ver_nino", "crear_nino"]}
func DecodeIdentity(raw map[string]any) (*Identity, error) {
	if raw == nil {
		return nil, loginError(ErrMalformedResponse, "user payload missing", nil)
	}

	var payload identityPayload
	var meta mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &meta,
		Result:   &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("build identity decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, loginError(ErrMalformedResponse, "user payload", err)
	}
	if slices.Contains(meta.Unset, "id") {
		return nil, loginError(ErrMalformedResponse, "user payload has no id", nil)
	}

	id, err := identifierString(payload.ID)
	if err != nil {
		return nil, loginError(ErrMalformedResponse, "user payload", err)
	}

	displayName := payload.Names
	if displayName == "" {
		displayName = payload.Email
	}

	identity, err := NewIdentity(id, displayName, payload.Email, payload.IsSuperuser, payload.Roles, payload.Permissions)
	if err != nil {
		return nil, loginError(ErrMalformedResponse, "user payload", err)
	}
	return identity, nil
}

// identifierString renders the backend's id (number or string) as opaque text.
func identifierString(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case float64:
		if id != float64(int64(id)) {
			return "", fmt.Errorf("id %v is not an integer", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	default:
		return "", fmt.Errorf("id has unsupported type %T", v)
	}
}
