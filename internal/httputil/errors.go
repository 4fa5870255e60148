package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/af-corp/chat-orchestrator/internal/types"
)

// APIError matches the OpenAI error response format.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

type APIErrorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, errType, code, message string) {
	w.Header().Set("X-Request-ID", requestID)
	WriteJSON(w, statusCode, APIError{
		Error: APIErrorBody{
			Message:   message,
			Type:      errType,
			Code:      code,
			RequestID: requestID,
		},
	})
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "invalid_request", message)
}

func WriteNotFoundError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusNotFound, "invalid_request_error", "not_found", message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "server_error", "internal_error", message)
}

// DomainError maps the typed orchestration errors onto an HTTP status and
// error body. Causes are never exposed; anything unrecognized is a 500.
func DomainError(requestID string, err error) (int, APIErrorBody) {
	body := APIErrorBody{Type: "server_error", RequestID: requestID}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrConversationNotFound):
		status = http.StatusNotFound
		body.Type, body.Code, body.Message = "invalid_request_error", "not_found", "Conversation not found"
	case errors.Is(err, types.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
		body.Code, body.Message = "provider_unavailable", "Model provider is unavailable"
	case errors.Is(err, types.ErrGenerationFailed):
		status = http.StatusBadGateway
		body.Code, body.Message = "generation_failed", "Model provider failed to generate a reply"
	default:
		body.Code, body.Message = "internal_error", "Internal error"
	}
	return status, body
}

func WriteDomainError(w http.ResponseWriter, requestID string, err error) {
	status, body := DomainError(requestID, err)
	WriteError(w, requestID, status, body.Type, body.Code, body.Message)
}
