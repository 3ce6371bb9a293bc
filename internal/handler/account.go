package handler

import (
	"net/http"

	"github.com/teamx/teamfinder/internal/ctxkeys"
	"github.com/teamx/teamfinder/internal/httpx"
	"github.com/teamx/teamfinder/internal/service"
	"github.com/teamx/teamfinder/internal/validation"
)

type AccountHandler struct {
	authService *service.AuthService
}

func NewAccountHandler(authService *service.AuthService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
	}
}

// ChangePassword handles PUT /auth/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in validation.ChangePasswordInput
	if !decodeValid(w, r, &in) {
		return
	}

	err := h.authService.ChangePassword(r.Context(), user.ID, in.CurrentPassword, in.NewPassword)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, messageResponse{Success: true, Message: "Password updated"})
}
