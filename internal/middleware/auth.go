package middleware

import (
	"net/http"
	"strings"

	"github.com/2beens/fitcalc/internal/auth"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"
	"github.com/2beens/fitcalc/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type AuthMiddlewareHandler struct {
	checker      auth.Checker
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(checker auth.Checker, allowedPaths ...string) *AuthMiddlewareHandler {
	h := &AuthMiddlewareHandler{
		checker:      checker,
		allowedPaths: map[string]bool{},
	}
	for _, p := range allowedPaths {
		h.allowedPaths[p] = true
	}
	return h
}

// BearerCredential reads the credential from the Authorization header,
// falling back to the apikey header.
func BearerCredential(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(r.Header.Get("apikey"))
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.DevServerTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			credential := BearerCredential(r)
			if credential == "" {
				log.Tracef("[missing credential] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteJSONError(w, http.StatusUnauthorized, "missing authorization")
				span.SetStatus(codes.Error, "missing-credential")
				return
			}

			authorized, err := h.checker.IsAuthorized(ctx, credential)
			if err != nil {
				log.Errorf("[failed auth check] => %s: %s", r.URL.Path, err)
				pkg.WriteJSONError(w, http.StatusUnauthorized, "invalid authorization")
				span.SetStatus(codes.Error, "check-authorized-err")
				span.RecordError(err)
				return
			}
			if !authorized {
				log.Tracef("[invalid credential] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteJSONError(w, http.StatusUnauthorized, "invalid authorization")
				span.SetStatus(codes.Error, "not-authorized")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
