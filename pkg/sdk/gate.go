package sdk

import "net/http"

// SignInPath is the sign-in entry point that denied navigation is redirected to.
const SignInPath = "/login"

// Decision is the outcome of guarding a navigable unit.
type Decision struct {
	// Allowed is true when the target may be rendered.
	Allowed bool
	// RedirectTo is the sign-in entry point when Allowed is false.
	RedirectTo string
}

// Guard decides whether the current identity of reader may reach a target that requires
// capability. An empty capability only requires a signed-in identity.
func Guard(reader IdentityReader, capability string) Decision {
	if Evaluate(reader.CurrentIdentity(), capability) {
		return Decision{Allowed: true}
	}
	return Decision{RedirectTo: SignInPath}
}

// RequireCapability returns HTTP middleware applying Guard to every request.
// Denied requests are redirected to SignInPath with 303 See Other.
func RequireCapability(reader IdentityReader, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Guard(reader, capability)
			if !decision.Allowed {
				http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
