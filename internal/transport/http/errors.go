package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// writeError — ответ с ошибкой сервиса.
//
//	ValidationError     → 422 {"message", "errors"}
//	AuthenticationError → 401
//	ответ бэкенда 4xx   → тот же статус
//	FetchError/UpdateError/NetworkError → 502
//	остальное           → 500
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": verr.Error(), "errors": verr.Fields})
		return
	}
	if errors.Is(err, domain.ErrAuthentication) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		c.JSON(apiErr.Status, gin.H{"message": err.Error()})
		return
	}

	switch {
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrUpdate), errors.Is(err, domain.ErrNetwork):
		h.log.Warnf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
	default:
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// badRequest — тело запроса не разобрать.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
}
