package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request id (server-side)
//   - Returned to clients as a user-friendly message with an action and code
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is written as JSON

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/sharkguard/internal/core"
	"github.com/JonMunkholm/sharkguard/internal/logging"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errInvalidBody  = errors.New("invalid input: request body is not valid JSON")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error    string                 `json:"error"`
	Message  string                 `json:"message"`
	Action   string                 `json:"action,omitempty"`
	Code     string                 `json:"code"`
	Problems []core.ValidationError `json:"problems,omitempty"`
}

// respondError logs the technical error server-side and writes the mapped
// user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	writeErrorJSON(w, statusCode, err)
}

// writeErrorJSON writes the mapped message for err. Input problems are
// included so forms can highlight the offending fields.
func writeErrorJSON(w http.ResponseWriter, statusCode int, err error) {
	msg := core.MapError(err)
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var ie *core.InputError
	if errors.As(err, &ie) {
		resp.Problems = ie.Problems
	}
	writeJSON(w, statusCode, resp)
}

// statusFor picks the HTTP status for an error from a non-import operation.
func statusFor(err error) int {
	var ie *core.InputError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
