package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/school-payments/internal"
	"github.com/frahmantamala/school-payments/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// SuccessResponse is the uniform success envelope.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess writes the uniform success envelope.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	h.WriteJSON(w, status, SuccessResponse{Success: true, Message: message, Data: data})
}

// WriteFailure writes the uniform failure envelope.
func (h *BaseHandler) WriteFailure(w http.ResponseWriter, status int, message string, err error) {
	errMsg := ""
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			errMsg = appErr.GetDetailedMessage()
		} else {
			errMsg = err.Error()
		}
	}
	h.Logger.Error("http error", "status", status, "message", message, "error", errMsg)
	h.WriteJSON(w, status, ErrorResponse{Success: false, Message: message, Error: errMsg})
}

// HandleServiceError maps a service error to the failure envelope,
// using the AppError status when present and falling back to 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	if appErr, ok := errors.IsAppError(err); ok {
		status = appErr.StatusCode
	}
	h.WriteFailure(w, status, message, err)
}

// WriteError writes a minimal error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
