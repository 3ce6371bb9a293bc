package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler() http.Handler {
	return CORS([]string{"http://localhost:5173/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORSPreflightAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/profile/setup", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	corsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	corsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/profile", nil)
	preflight.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	corsHandler().ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
