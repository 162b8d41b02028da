package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/metrics"
	"signal-net/internal/service"
)

type CredibilityHandler struct {
	logger *zap.Logger
	cred   *service.CredibilityService
	errs   errorWriter
}

func NewCredibilityHandler(logger *zap.Logger, cred *service.CredibilityService, recorder *metrics.Recorder) *CredibilityHandler {
	return &CredibilityHandler{
		logger: logger,
		cred:   cred,
		errs:   errorWriter{logger: logger, metrics: recorder},
	}
}

// Leaderboard maneja GET /credibility/leaderboard?limit=N.
func (h *CredibilityHandler) Leaderboard(c *gin.Context) {
	board, err := h.cred.Leaderboard(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		h.errs.write(c, err, "load leaderboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

// UserScore maneja GET /credibility/users/:id.
func (h *CredibilityHandler) UserScore(c *gin.Context) {
	score, err := h.cred.UserScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "load credibility")
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

// History maneja GET /credibility/users/:id/history?limit=N.
func (h *CredibilityHandler) History(c *gin.Context) {
	history, err := h.cred.History(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		h.errs.write(c, err, "load credibility history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// queryInt devuelve 0 si el parametro falta o no es numerico; el servicio aplica el default.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
