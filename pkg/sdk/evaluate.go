package sdk

// Evaluate decides whether identity may exercise capability.
//
// An empty capability asks only whether somebody is signed in. A nil identity is never
// granted anything. Identities with full access (superuser or the admin role) are granted
// every capability; everyone else needs the exact code in their permission set.
// Unknown codes are denied, never reported as errors.
func Evaluate(identity *Identity, capability string) bool {
	if identity == nil {
		return false
	}
	if capability == "" {
		return true
	}
	if identity.HasFullAccess() {
		return true
	}
	return identity.HasPermission(capability)
}

// EvaluateAll reports whether identity is granted every capability in the list.
// An empty list is treated like an empty capability.
func EvaluateAll(identity *Identity, capabilities ...string) bool {
	if len(capabilities) == 0 {
		return Evaluate(identity, "")
	}
	for _, c := range capabilities {
		if !Evaluate(identity, c) {
			return false
		}
	}
	return true
}
