package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/metrics"
	"signal-net/internal/service"
)

type ChallengeHandler struct {
	logger     *zap.Logger
	challenges *service.ChallengeService
	errs       errorWriter
}

func NewChallengeHandler(logger *zap.Logger, challenges *service.ChallengeService, recorder *metrics.Recorder) *ChallengeHandler {
	return &ChallengeHandler{
		logger:     logger,
		challenges: challenges,
		errs:       errorWriter{logger: logger, metrics: recorder},
	}
}

// CreateChallenge maneja POST /signals/:id/challenge. Sin target_id el challenge queda abierto.
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		TargetID    string `json:"target_id"`
		StakeAmount int    `json:"stake_amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid create challenge request", err)
		return
	}
	challenge, err := h.challenges.CreateChallenge(c.Request.Context(), service.CreateChallengeInput{
		ChallengerID: userID,
		SignalID:     c.Param("id"),
		TargetID:     req.TargetID,
		StakeAmount:  req.StakeAmount,
	})
	if err != nil {
		h.errs.write(c, err, "create challenge")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"challenge": challenge})
}

// GetChallenge maneja GET /challenges/:id.
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challenge, err := h.challenges.GetChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "get challenge")
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}

// AcceptChallenge maneja POST /challenges/:id/accept.
func (h *ChallengeHandler) AcceptChallenge(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	challenge, err := h.challenges.AcceptChallenge(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "accept challenge")
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}

// ResolveChallenge maneja POST /challenges/:id/resolve.
func (h *ChallengeHandler) ResolveChallenge(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		WinnerID string `json:"winner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid resolve challenge request", err)
		return
	}
	challenge, err := h.challenges.ResolveChallenge(c.Request.Context(), userID, c.Param("id"), req.WinnerID)
	if err != nil {
		h.errs.write(c, err, "resolve challenge")
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}
