package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/metrics"
	"signal-net/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios y login.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
	errs     errorWriter
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, recorder *metrics.Recorder) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
		errs:     errorWriter{logger: logger, metrics: recorder},
	}
}

// publicUser es el perfil visible para otros usuarios.
type publicUser struct {
	ID               string    `json:"id"`
	Handle           string    `json:"handle"`
	Name             string    `json:"name,omitempty"`
	CredibilityScore float64   `json:"credibility_score"`
	Accuracy         float64   `json:"accuracy"`
	Streak           int       `json:"streak"`
	CreatedAt        time.Time `json:"created_at"`
}

func toPublicUser(u domain.User) publicUser {
	return publicUser{
		ID:               u.ID,
		Handle:           u.Handle,
		Name:             u.Name,
		CredibilityScore: u.CredibilityScore,
		Accuracy:         u.Accuracy,
		Streak:           u.Streak,
		CreatedAt:        u.CreatedAt,
	}
}

// Register maneja POST /users.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Handle   string `json:"handle" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid register request", err)
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Handle:   req.Handle,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.errs.write(c, err, "register user")
		return
	}
	token, err := h.jwtServ.GenerateAccessToken(user)
	if err != nil {
		h.errs.write(c, err, "issue token")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login maneja POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid login request", err)
		return
	}
	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.write(c, err, "login")
		return
	}
	token, err := h.jwtServ.GenerateAccessToken(user)
	if err != nil {
		h.errs.write(c, err, "issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Me maneja GET /auth/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	user, err := h.userServ.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.errs.write(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUser maneja GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userServ.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.write(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toPublicUser(user)})
}
