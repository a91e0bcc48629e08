package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jdwd40/coin-exchange-gateway/internal/auth"
)

const sessionContextKey = "session"

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterUser handles POST /api/auth/register: sign the user up with the
// provider, then provision their account with the starting funds.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	session, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Registration rejected"})
			return
		}
		h.logger.WithError(err).Error("Sign-up failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Registration failed"})
		return
	}

	if err := h.store.CreateAccount(ctx, session.UserID, h.startingFunds); err != nil {
		h.logger.WithError(err).WithField("user_id", session.UserID).
			Error("Account provisioning failed after sign-up")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":      session.UserID,
		"email":        session.Email,
		"access_token": session.AccessToken,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	session, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.logger.WithError(err).Error("Sign-in failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      session.UserID,
		"email":        session.Email,
		"access_token": session.AccessToken,
	})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	session := sessionFrom(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	if err := h.auth.SignOut(ctx, session.AccessToken); err != nil {
		h.logger.WithError(err).Warn("Sign-out failed")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *gin.Context) {
	session := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": session.UserID,
		"email":   session.Email,
	})
}

// AuthRequired resolves the bearer token to a session and stashes it on the
// request context. Flows never see a token, only the resolved session.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
		defer cancel()

		session, err := h.auth.Lookup(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
				return
			}
			h.logger.WithError(err).Error("Session lookup failed")
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Auth provider unavailable"})
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *auth.Session {
	if value, ok := c.Get(sessionContextKey); ok {
		if session, ok := value.(*auth.Session); ok {
			return session
		}
	}
	return nil
}
