package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var defaultAllowedOrigins = []string{
	"http://localhost:8081",
	"http://localhost:19006",
	"http://127.0.0.1:8081",
}

// Cors lets browser clients from the allowed origins call the functions.
// Requests without an Origin header (CLI, native apps) pass untouched.
func Cors(extraOrigins ...string) func(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{}
	for _, o := range defaultAllowedOrigins {
		allowedOrigins[o] = true
	}
	for _, o := range extraOrigins {
		allowedOrigins[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin == "":
				// not a browser request
			case allowedOrigins[origin], strings.HasPrefix(origin, "exp://"):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers",
					"Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, apikey, x-client-info",
				)
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Add("Vary", "Origin")
			default:
				log.Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
