package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamx/teamfinder/internal/app"
	"github.com/teamx/teamfinder/internal/config"
	"github.com/teamx/teamfinder/internal/db/dbtest"
	"github.com/teamx/teamfinder/internal/service"
)

type inbox struct {
	mu   sync.Mutex
	sent []service.EmailMessage
}

func (m *inbox) Send(_ context.Context, msg service.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var otpCode = regexp.MustCompile(`\b\d{6}\b`)

func (m *inbox) code(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			if code := otpCode.FindString(m.sent[i].Text); code != "" {
				return code
			}
		}
	}
	t.Fatalf("no otp mail for %s", to)
	return ""
}

type server struct {
	t       *testing.T
	handler http.Handler
	mail    *inbox
}

func newServer(t *testing.T, authLimit int) *server {
	t.Helper()

	cfg := &config.Config{
		AppName:               "TeamX",
		AppEnv:                "test",
		AppURL:                "http://localhost:5173",
		CORSAllowedOrigins:    []string{"http://localhost:5173"},
		JWTSecret:             "0123456789abcdef0123",
		SessionTTL:            48 * time.Hour,
		OTPTTL:                5 * time.Minute,
		OTPMaxAttempts:        3,
		RateLimitAuthRequests: authLimit,
		RateLimitAuthWindow:   time.Minute,
	}
	mail := &inbox{}

	a := app.NewWithDeps(context.Background(), cfg, app.Deps{
		DB:     dbtest.Open(t),
		Mailer: mail,
	})
	t.Cleanup(func() { _ = a.Close() })

	return &server{t: t, handler: SetupRoutes(a), mail: mail}
}

func (s *server) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// register walks the full signup flow and returns a session token.
func (s *server) register(email, password string) string {
	s.t.Helper()

	status, _ := s.do(http.MethodPost, "/auth/request-otp", "", map[string]string{"email": email})
	require.Equal(s.t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "otp": s.mail.code(s.t, email)})
	require.Equal(s.t, http.StatusOK, status)

	status, body := s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, status)
	token, _ := body["token"].(string)
	require.NotEmpty(s.t, token)
	return token
}

func errorOf(body map[string]any) map[string]any {
	e, _ := body["error"].(map[string]any)
	return e
}

func profileOf(body map[string]any) map[string]any {
	p, _ := body["profile"].(map[string]any)
	return p
}

func TestSignupFlow(t *testing.T) {
	s := newServer(t, 100)
	email := "asha@college.edu"

	status, body := s.do(http.MethodGet, "/auth/status?email="+email, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "unregistered", body["state"])

	status, body = s.do(http.MethodPost, "/auth/request-otp", "", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.MessageOTPSent, body["message"])

	status, body = s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Please verify your email first", errorOf(body)["message"])

	status, _ = s.do(http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "otp": s.mail.code(t, email)})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/auth/status?email="+email, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "verified", body["state"])

	status, body = s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, status)
	token := body["token"].(string)

	status, body = s.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, email, user["email"])
	assert.Equal(t, false, user["isProfileComplete"])

	status, body = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", errorOf(body)["message"])
}

func TestChangePassword(t *testing.T) {
	s := newServer(t, 100)
	token := s.register("asha@college.edu", "secret1")

	status, body := s.do(http.MethodPut, "/auth/password", token, map[string]string{"currentPassword": "nope12", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Current password is incorrect", errorOf(body)["message"])

	status, _ = s.do(http.MethodPut, "/auth/password", token, map[string]string{"currentPassword": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "asha@college.edu", "password": "secret2"})
	assert.Equal(t, http.StatusOK, status)
}

func TestRequestOTPValidation(t *testing.T) {
	s := newServer(t, 100)

	status, body := s.do(http.MethodPost, "/auth/request-otp", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorOf(body)["kind"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t, 100)

	status, body := s.do(http.MethodGet, "/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorOf(body)["kind"])

	status, _ = s.do(http.MethodGet, "/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileLifecycle(t *testing.T) {
	s := newServer(t, 100)
	owner := s.register("asha@college.edu", "secret1")
	other := s.register("ravi@college.edu", "secret2")

	status, body := s.do(http.MethodPost, "/profile/setup", owner, map[string]any{
		"name":        "Asha",
		"year":        "3",
		"collegeMail": "asha@college.edu",
		"techStacks":  []string{"Go", "React"},
		"roles":       []string{"Backend"},
		"bio":         "Building **things**",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Profile saved successfully", body["message"])
	profile := profileOf(body)
	id := profile["id"].(string)
	assert.Equal(t, false, profile["isPosted"])
	assert.Contains(t, profile["bioHtml"], "<strong>things</strong>")

	status, body = s.do(http.MethodGet, "/auth/me", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["user"].(map[string]any)["isProfileComplete"])

	status, body = s.do(http.MethodGet, "/profile/posted/all", other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])

	status, body = s.do(http.MethodPatch, "/profile/"+id+"/post", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, profileOf(body)["isPosted"])

	status, body = s.do(http.MethodGet, "/profile/posted/all?techStack=go", other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = s.do(http.MethodGet, "/profile/posted/all?role=designer", other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])

	status, body = s.do(http.MethodPut, "/profile/"+id, other, map[string]any{"name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You can only modify your own profile", errorOf(body)["message"])

	status, _ = s.do(http.MethodPatch, "/profile/"+id+"/unpost", other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(http.MethodPut, "/profile/"+id, owner, map[string]any{"name": "Asha K"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Asha K", profileOf(body)["name"])

	status, body = s.do(http.MethodGet, "/profile/"+id, other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Asha K", profileOf(body)["name"])

	status, _ = s.do(http.MethodDelete, "/profile/"+id, owner, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/profile/"+id, owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorOf(body)["kind"])

	status, body = s.do(http.MethodGet, "/auth/me", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["user"].(map[string]any)["isProfileComplete"])
}

func TestAuthRateLimit(t *testing.T) {
	s := newServer(t, 2)
	body := map[string]string{"email": "asha@college.edu"}

	for range 2 {
		status, _ := s.do(http.MethodPost, "/auth/request-otp", "", body)
		require.Equal(t, http.StatusOK, status)
	}

	status, resp := s.do(http.MethodPost, "/auth/request-otp", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", errorOf(resp)["kind"])

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `teamx_api_rate_limit_hits_total{route="/auth/request-otp"} 1`)
}

func TestHealthzAndUnknownRoute(t *testing.T) {
	s := newServer(t, 100)

	status, _ := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorOf(body)["kind"])
}
