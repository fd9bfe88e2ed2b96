package httpadapter

import (
	"net/http"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrEmbedding),
		domain.IsKind(err, domain.ErrGeneration):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrDimensionMismatch),
		domain.IsKind(err, domain.ErrConfiguration):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage never exposes provider detail to clients.
func publicErrorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusNotFound:
		return "knowledge base not found"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return "internal error"
	}
}
