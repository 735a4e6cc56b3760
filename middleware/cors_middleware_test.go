package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestAllowedOrigins(t *testing.T) {
	t.Run("defaults to the local frontends", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		if got := AllowedOrigins(); !reflect.DeepEqual(got, defaultOrigins) {
			t.Errorf("AllowedOrigins() = %v, want %v", got, defaultOrigins)
		}
	})

	t.Run("parses the comma-separated variable", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
		want := []string{"https://app.example.com", "https://admin.example.com"}
		if got := AllowedOrigins(); !reflect.DeepEqual(got, want) {
			t.Errorf("AllowedOrigins() = %v, want %v", got, want)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware([]string{"https://app.example.com"})(next)

	t.Run("whitelisted origin gets the headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/users", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("preflight is answered without reaching the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/users", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/users", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})
}
