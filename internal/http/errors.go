package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/metrics"
	"signal-net/internal/service"
)

// errorWriter traduce errores de servicio a respuestas JSON. Los errores de dominio
// exponen su mensaje; el resto se loguea y sale como 500 generico.
type errorWriter struct {
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func (w errorWriter) write(c *gin.Context, err error, op string) {
	if kind := domain.KindOf(err); kind != "" {
		w.metrics.RecordDomainError(string(kind))
		c.JSON(statusForKind(kind), gin.H{"error": err.Error(), "kind": kind})
		return
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	w.logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindInvalidState, domain.KindConflict:
		return http.StatusConflict
	case domain.KindPaymentRequired:
		return http.StatusPaymentRequired
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
