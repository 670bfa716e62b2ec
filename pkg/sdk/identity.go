package sdk

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// AdminRole is the role label that grants the same unconditional access as the superuser flag.
const AdminRole = "admin"

// Identity is the signed-in principal and its authorization facts.
//
// Identities are built with NewIdentity (or DecodeIdentity at the authentication boundary),
// which normalizes the role and permission sets. Authorization reads the exported fields
// directly, so a struct literal is evaluated exactly like a constructed identity.
// A nil *Identity means nobody is signed in.
type Identity struct {
	// ID is the opaque principal identifier assigned by the backend.
	ID string `json:"id"`
	// DisplayName is used for presentation only.
	DisplayName string `json:"display_name"`
	// Email is used for presentation only.
	Email string `json:"email,omitempty"`
	// IsSuperuser grants every capability.
	IsSuperuser bool `json:"is_superuser"`
	// Roles lists the role labels assigned to the principal (sorted, unique).
	Roles []string `json:"roles"`
	// Permissions lists capability codes granted through the principal's roles (sorted, unique).
	Permissions []string `json:"permissions"`
}

// NewIdentity builds a normalized Identity.
// Role and permission labels are trimmed, de-duplicated and sorted; blank entries are dropped.
func NewIdentity(id, displayName, email string, superuser bool, roles, permissions []string) (*Identity, error) {
	identity := &Identity{
		ID:          strings.TrimSpace(id),
		DisplayName: displayName,
		Email:       email,
		IsSuperuser: superuser,
		Roles:       normalizeSet(roles),
		Permissions: normalizeSet(permissions),
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return identity, nil
}

// Validate checks the structural invariants of an identity.
func (i *Identity) Validate() error {
	if i == nil {
		return fmt.Errorf("identity is nil")
	}
	if i.ID == "" {
		return fmt.Errorf("identity id is required")
	}
	return nil
}

// HasFullAccess reports whether the identity bypasses permission checks,
// either as a superuser or through the admin role.
func (i *Identity) HasFullAccess() bool {
	if i == nil {
		return false
	}
	return i.IsSuperuser || slices.Contains(i.Roles, AdminRole)
}

// HasPermission reports whether code is one of the identity's explicit capability codes.
// It does not consider full access; use Evaluate for authorization decisions.
func (i *Identity) HasPermission(code string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Permissions, code)
}

// HasRole reports whether the identity carries the given role label.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role)
}

// Clone returns a deep copy, so callers cannot mutate the session's identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Roles = slices.Clone(i.Roles)
	c.Permissions = slices.Clone(i.Permissions)
	return &c
}

// Normalized returns a validated copy with trimmed, de-duplicated and sorted sets.
func (i *Identity) Normalized() (*Identity, error) {
	if i == nil {
		return nil, fmt.Errorf("identity is nil")
	}
	return NewIdentity(i.ID, i.DisplayName, i.Email, i.IsSuperuser, i.Roles, i.Permissions)
}

// UnmarshalJSON decodes a persisted identity and re-applies normalization,
// so identities read back from durable storage behave exactly like fresh ones.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := (*Identity)(&raw).Normalized()
	if err != nil {
		return err
	}
	*i = *normalized
	return nil
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
