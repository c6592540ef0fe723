package user

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/internal/transport"
	"github.com/frahmantamala/school-payments/pkg/logger"
)

type ServiceAPI interface {
	GetByID(userID string) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(userID)
	if err != nil {
		if err == ErrNotFound {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("GetCurrentUser: lookup failed", "user_id", userID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
