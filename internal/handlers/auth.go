package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/auth"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/telemetry"
)

// AuthService is the credential surface the auth handlers depend on.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token issued on success.
type LoginResponse struct {
	Successful bool   `json:"successful"`
	Token      string `json:"token"`
}

// Login checks credentials and issues a session token.
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"successful": false,
			"error":      `expected JSON body with "username" and "password"`,
		})
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		telemetry.LoginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{
			"successful": false,
			"error":      "incorrect username or password",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"successful": false, "error": "login failed"})
		return
	}

	telemetry.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, LoginResponse{Successful: true, Token: token})
}

// Logout ends a session. Tokens are stateless, so the server side has nothing
// to forget; clients drop the token.
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"successful": true})
}
