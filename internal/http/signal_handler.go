package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/metrics"
	"signal-net/internal/service"
)

// SignalHandler expone senales y convicciones.
type SignalHandler struct {
	logger      *zap.Logger
	signals     *service.SignalService
	convictions *service.ConvictionService
	errs        errorWriter
}

func NewSignalHandler(logger *zap.Logger, signals *service.SignalService, convictions *service.ConvictionService, recorder *metrics.Recorder) *SignalHandler {
	return &SignalHandler{
		logger:      logger,
		signals:     signals,
		convictions: convictions,
		errs:        errorWriter{logger: logger, metrics: recorder},
	}
}

// CreateSignal maneja POST /signals.
func (h *SignalHandler) CreateSignal(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Content   string `json:"content" binding:"required"`
		Topic     string `json:"topic"`
		Category  string `json:"category" binding:"required"`
		Timeframe string `json:"timeframe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid create signal request", err)
		return
	}

	signal, err := h.signals.CreateSignal(c.Request.Context(), service.CreateSignalInput{
		UserID:    userID,
		Content:   req.Content,
		Topic:     req.Topic,
		Category:  req.Category,
		Timeframe: req.Timeframe,
	})
	if err != nil {
		h.errs.write(c, err, "create signal")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"signal": signal})
}

// GetSignal maneja GET /signals/:id.
func (h *SignalHandler) GetSignal(c *gin.Context) {
	signal, err := h.signals.GetSignal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "get signal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signal": signal})
}

// ResolveSignal maneja POST /signals/:id/resolve.
func (h *SignalHandler) ResolveSignal(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Value *float64 `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid resolve signal request", err)
		return
	}
	signal, err := h.signals.ResolveSignal(c.Request.Context(), userID, c.Param("id"), *req.Value)
	if err != nil {
		h.errs.write(c, err, "resolve signal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signal": signal})
}

// SubmitConviction maneja POST /signals/:id/conviction.
func (h *SignalHandler) SubmitConviction(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Value *float64 `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid conviction request", err)
		return
	}
	conviction, err := h.convictions.SubmitConviction(c.Request.Context(), userID, c.Param("id"), *req.Value)
	if err != nil {
		h.errs.write(c, err, "submit conviction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conviction": conviction})
}

// GetConviction maneja GET /signals/:id/conviction para el usuario autenticado.
func (h *SignalHandler) GetConviction(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conviction, err := h.convictions.GetConviction(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "get conviction")
		return
	}
	if conviction == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conviction not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conviction": conviction})
}
