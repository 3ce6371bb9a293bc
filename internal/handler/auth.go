package handler

import (
	"net/http"

	"github.com/teamx/teamfinder/internal/ctxkeys"
	"github.com/teamx/teamfinder/internal/httpx"
	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/service"
	"github.com/teamx/teamfinder/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type sessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*service.AuthResult
}

type stateResponse struct {
	Success bool              `json:"success"`
	Email   string            `json:"email"`
	State   model.SignupState `json:"state"`
}

type meResponse struct {
	Success bool              `json:"success"`
	User    model.UserSummary `json:"user"`
}

// RequestOTP handles POST /auth/request-otp.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var in validation.RequestOTPInput
	if !decodeValid(w, r, &in) {
		return
	}

	msg, err := h.authService.RequestOTP(r.Context(), in.Email)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in validation.VerifyOTPInput
	if !decodeValid(w, r, &in) {
		return
	}

	msg, err := h.authService.VerifyOTP(r.Context(), in.Email, in.OTP)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

// Signup handles POST /auth/signup, the last step after OTP verification.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in validation.SignupInput
	if !decodeValid(w, r, &in) {
		return
	}

	result, err := h.authService.CompleteSignup(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, sessionResponse{
		Success:    true,
		Message:    "Signup complete",
		AuthResult: result,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if !decodeValid(w, r, &in) {
		return
	}

	result, err := h.authService.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, sessionResponse{
		Success:    true,
		Message:    "Login successful",
		AuthResult: result,
	})
}

// Status handles GET /auth/status?email=.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	in := validation.RequestOTPInput{Email: r.URL.Query().Get("email")}
	err := in.Validate()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	state, err := h.authService.State(r.Context(), in.Email)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, stateResponse{Success: true, Email: in.Email, State: state})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	httpx.JSON(w, http.StatusOK, meResponse{Success: true, User: user.Summary()})
}

type validator interface {
	Validate() error
}

// decodeValid decodes and validates the body, writing the error response on
// failure.
func decodeValid(w http.ResponseWriter, r *http.Request, dst validator) bool {
	err := httpx.Decode(w, r, dst)
	if err == nil {
		err = dst.Validate()
	}
	if err != nil {
		httpx.Error(w, r, err)
		return false
	}
	return true
}
