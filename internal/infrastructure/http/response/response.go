package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrops-br/products-api/internal/domain"
	"github.com/mrops-br/products-api/internal/infrastructure/telemetry"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string         `json:"error" example:"not_found"`
	Message   string         `json:"message" example:"Product 1 not found"`
	Details   []FieldProblem `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// FieldProblem names one rejected input field
type FieldProblem struct {
	Field   string `json:"field" example:"name"`
	Message string `json:"message" example:"must not be empty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent sends an empty 204 response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends an error response
func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:     errorType(status),
		Message:   err.Error(),
		RequestID: telemetry.RequestIDFromContext(r.Context()),
	})
}

// Validation sends a 422 listing every rejected field
func Validation(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Error:     errorType(http.StatusUnprocessableEntity),
		Message:   err.Error(),
		RequestID: telemetry.RequestIDFromContext(r.Context()),
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Details = make([]FieldProblem, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			resp.Details = append(resp.Details, FieldProblem{Field: f.Field, Message: f.Message})
		}
	}

	JSON(w, http.StatusUnprocessableEntity, resp)
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusInternalServerError:
		return "internal_server_error"
	default:
		return "error"
	}
}
