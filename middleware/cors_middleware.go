package middleware

import (
	"net/http"
	"os"
	"strings"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// AllowedOrigins returns the browser origin whitelist. It reads the
// comma-separated CORS_ALLOWED_ORIGINS variable, falling back to the local
// dev frontends.
func AllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return defaultOrigins
	}
	origins := []string{}
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func originAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if origin == allowed || (allowed == "*" && origin != "") {
			return true
		}
	}
	return false
}

// CORSMiddleware sets the CORS headers for whitelisted origins and answers
// preflight requests.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !originAllowed(origin, allowedOrigins) {
				next.ServeHTTP(w, r)
				return
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
