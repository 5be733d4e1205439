package handlers

import (
	"net/http"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// UserHandler handles user-related routes
type UserHandler struct {
	authService AuthServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService AuthServiceInterface) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// ListUsers returns every account as a bare JSON array
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, constants.StatusOK, users)
}
