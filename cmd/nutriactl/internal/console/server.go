package console

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/telemetry"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

const tracerName = "nutriactl/console"

// page is the data every console template renders.
type page struct {
	Title    string
	Path     string
	Identity *sdk.Identity
	Nav      []sdk.Section
	Error    string
	Email    string
}

// accessResponse is the body of /api/access/{resource}.
type accessResponse struct {
	Resource   string `json:"resource"`
	Method     string `json:"method"`
	Capability string `json:"capability,omitempty"`
	Allowed    bool   `json:"allowed"`
	Error      string `json:"error,omitempty"`
}

// sessionResponse is the body of GET /api/session.
type sessionResponse struct {
	State    string        `json:"state"`
	Identity *sdk.Identity `json:"identity"`
	Sections []string      `json:"sections"`
}

type handlers struct {
	session *sdk.Session
	logger  *slog.Logger
}

// NewRouter assembles the local admin console: the sign-in entry point, logout,
// and every navigation section guarded by its capability.
func NewRouter(session *sdk.Session, logger *slog.Logger) chi.Router {
	h := &handlers{session: session, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get(sdk.SignInPath, h.loginForm)
	r.Post(sdk.SignInPath, h.login)
	r.Post("/logout", h.logout)
	r.Get("/api/session", h.currentSession)

	// Feature screens ask here before offering an action on a resource
	for _, resource := range sdk.Resources() {
		r.With(h.authorizeRequest(resource)).HandleFunc("/api/access/"+resource, h.access(resource))
	}

	for _, section := range sdk.Sections {
		r.With(sdk.RequireCapability(session, section.Capability)).
			Get(section.Path, h.section(section))
	}

	return r
}

func (h *handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	if h.session.State() == sdk.StateSignedIn {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, loginTemplate, page{Title: "Iniciar sesión", Path: sdk.SignInPath})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	req := sdk.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if _, err := h.session.Login(r.Context(), req); err != nil {
		status, message := loginFailure(err)
		h.render(w, status, loginTemplate, page{
			Title: "Iniciar sesión",
			Path:  sdk.SignInPath,
			Error: message,
			Email: req.Email,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	http.Redirect(w, r, sdk.SignInPath, http.StatusSeeOther)
}

func (h *handlers) currentSession(w http.ResponseWriter, _ *http.Request) {
	identity := h.session.CurrentIdentity()
	resp := sessionResponse{
		State:    h.session.State().String(),
		Identity: identity,
		Sections: []string{},
	}
	for _, s := range sdk.VisibleSections(identity) {
		resp.Sections = append(resp.Sections, s.Path)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// authorizeRequest derives the capability from the request method and resource.
// Methods that map to no action are refused with 405 before any evaluation.
func (h *handlers) authorizeRequest(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capability := sdk.CapabilityForRequest(r.Method, resource)
			if capability == "" {
				w.Header().Set("Allow", "GET, POST, PUT, PATCH, DELETE")
				h.writeJSON(w, http.StatusMethodNotAllowed, accessResponse{
					Resource: resource,
					Method:   r.Method,
					Error:    "method maps to no action",
				})
				return
			}

			ctx, span := telemetry.StartSpan(r.Context(), tracerName, "console.Authorize",
				attribute.String(telemetry.AttrCapability, capability),
			)
			defer span.End()

			identity := h.session.CurrentIdentity()
			allowed := sdk.Evaluate(identity, capability)
			span.SetAttributes(attribute.Bool(telemetry.AttrAllowed, allowed))
			if identity != nil {
				span.SetAttributes(attribute.String(telemetry.AttrPrincipalID, identity.ID))
			}

			if !allowed {
				status := http.StatusForbidden
				if identity == nil {
					status = http.StatusUnauthorized
				}
				h.writeJSON(w, status, accessResponse{
					Resource:   resource,
					Method:     r.Method,
					Capability: capability,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *handlers) access(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, accessResponse{
			Resource:   resource,
			Method:     r.Method,
			Capability: sdk.CapabilityForRequest(r.Method, resource),
			Allowed:    true,
		})
	}
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "status", status, "error", err)
	}
}

func (h *handlers) section(section sdk.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := telemetry.StartSpan(r.Context(), tracerName, "console.Section",
			attribute.String(telemetry.AttrSectionPath, section.Path),
			attribute.String(telemetry.AttrCapability, section.Capability),
		)
		defer span.End()

		identity := h.session.CurrentIdentity()
		if identity == nil {
			// Logout raced with the gate
			http.Redirect(w, r, sdk.SignInPath, http.StatusSeeOther)
			return
		}
		span.SetAttributes(attribute.String(telemetry.AttrPrincipalID, identity.ID))

		h.render(w, http.StatusOK, sectionTemplate, page{
			Title:    section.Label,
			Path:     section.Path,
			Identity: identity,
			Nav:      sdk.VisibleSections(identity),
		})
	}
}

func (h *handlers) render(w http.ResponseWriter, status int, tmpl *template.Template, data page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("failed to render page", "title", data.Title, "error", err)
	}
}

// loginFailure maps a login error to an HTTP status and a user-facing message.
func loginFailure(err error) (int, string) {
	var le *sdk.LoginError
	reason := ""
	if errors.As(err, &le) {
		reason = le.Reason
	}

	switch {
	case errors.Is(err, sdk.ErrInvalidLoginRequest):
		return http.StatusBadRequest, "Ingrese un correo válido y su contraseña."
	case errors.Is(err, sdk.ErrCredentialsRejected):
		if reason != "" {
			return http.StatusUnauthorized, reason
		}
		return http.StatusUnauthorized, "Credenciales inválidas."
	case errors.Is(err, sdk.ErrLoginSuperseded):
		return http.StatusConflict, "El inicio de sesión fue cancelado."
	case errors.Is(err, sdk.ErrMalformedResponse):
		return http.StatusBadGateway, "El servidor devolvió una respuesta inesperada."
	default:
		return http.StatusBadGateway, "No se pudo contactar al servidor de autenticación."
	}
}

// requestLogger logs one line per request with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
