package sdk

import (
	"net/http"
	"slices"
	"strings"
)

// Capability codes are built as "<action>_<resource>", e.g. "ver_usuario".
// The catalog below mirrors the permission registry seeded by the backend.

// Actions
const (
	// ActionView allows listing and reading records.
	ActionView = "ver"

	// ActionCreate allows creating records.
	ActionCreate = "crear"

	// ActionEdit allows updating records.
	ActionEdit = "editar"

	// ActionDelete allows deleting (or deactivating) records.
	ActionDelete = "eliminar"
)

// Resources
const (
	ResourceUser           = "usuario"
	ResourceChild          = "nino"
	ResourceClinicalRecord = "historialclinico"
	ResourceFood           = "alimento"
	ResourceRecommendation = "recomendacion"
	ResourceReferenceParam = "parametroreferencia"
	ResourceRole           = "rolpersonalizado"
	ResourcePermission     = "permiso"
	ResourceActivityLog    = "logactividad"
)

var (
	allActions = []string{ActionView, ActionCreate, ActionEdit, ActionDelete}

	allResources = []string{
		ResourceUser,
		ResourceChild,
		ResourceClinicalRecord,
		ResourceFood,
		ResourceRecommendation,
		ResourceReferenceParam,
		ResourceRole,
		ResourcePermission,
		ResourceActivityLog,
	}
)

// Capability composes a capability code from an action and a resource.
// Example: Capability(ActionEdit, ResourceRole) → "editar_rolpersonalizado"
func Capability(action, resource string) string {
	return action + "_" + resource
}

// ActionForMethod maps an HTTP method to the action it requires.
// Returns "" for methods that map to no action.
func ActionForMethod(method string) string {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return ActionView
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionEdit
	case http.MethodDelete:
		return ActionDelete
	default:
		return ""
	}
}

// CapabilityForRequest returns the capability needed to call method on resource.
// Returns "" when the method maps to no action; callers must reject such requests
// rather than pass "" to Evaluate, which would only check that someone is signed in.
func CapabilityForRequest(method, resource string) string {
	action := ActionForMethod(method)
	if action == "" || resource == "" {
		return ""
	}
	return Capability(action, resource)
}

// ValidateCapability checks whether code belongs to the known catalog.
// This guards user input (CLI flags, config); Evaluate never needs it.
func ValidateCapability(code string) bool {
	action, resource, ok := strings.Cut(code, "_")
	if !ok {
		return false
	}
	return slices.Contains(allActions, action) && slices.Contains(allResources, resource)
}

// ResourceCapabilities expands a resource to its four capability codes.
// Example: ResourceCapabilities("nino") → ["ver_nino", "crear_nino", "editar_nino", "eliminar_nino"]
func ResourceCapabilities(resource string) []string {
	codes := make([]string, 0, len(allActions))
	for _, a := range allActions {
		codes = append(codes, Capability(a, resource))
	}
	return codes
}

// Resources returns every resource in the catalog.
func Resources() []string {
	return slices.Clone(allResources)
}

// AllCapabilities returns every capability code in the catalog.
func AllCapabilities() []string {
	var all []string
	for _, r := range allResources {
		all = append(all, ResourceCapabilities(r)...)
	}
	return all
}
