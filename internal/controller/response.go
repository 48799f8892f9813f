package controller

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// DataResponse is the envelope wrapping every successful payload.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const (
	codeValidation = "validation_error"
	codeNotFound   = "not_found"
	codeConflict   = "conflict"
	codeInternal   = "internal_error"
	codeMethod     = "method_not_allowed"
)

// JSON writes v with the given status. Encoding failures are logged; the
// status line has already been sent by then.
func JSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

func Data(w http.ResponseWriter, log *zap.Logger, status int, payload any) {
	JSON(w, log, status, DataResponse{Data: payload})
}

func Error(w http.ResponseWriter, log *zap.Logger, status int, code, message string) {
	JSON(w, log, status, ErrorResponse{Error: code, Message: message})
}

func NotFound(w http.ResponseWriter, log *zap.Logger) {
	Error(w, log, http.StatusNotFound, codeNotFound, "resource not found")
}

// MethodNotAllowed replies 405. allow lists the methods the path does accept
// and is sent as the Allow header when non-empty.
func MethodNotAllowed(w http.ResponseWriter, log *zap.Logger, allow string) {
	if allow != "" {
		w.Header().Set("Allow", allow)
	}
	Error(w, log, http.StatusMethodNotAllowed, codeMethod, "method not allowed")
}
