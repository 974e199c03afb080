package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/auth"
	"github.com/thena-travel/flightdesk/internal/domain"
)

const authDisabledMessage = "Account features are currently unavailable. Guest checkout still works."

// AuthHandler proxies the hosted identity provider. When the provider is not
// configured every route answers 503 with a clear message instead of
// crashing; guest checkout is unaffected.
type AuthHandler struct {
	client *auth.Client
	log    *logrus.Logger
}

func NewAuthHandler(client *auth.Client, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{client: client, log: log}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/signup", h.signUp)
	router.POST("/signin", h.signIn)
	router.POST("/signout", h.signOut)
	router.POST("/recover", h.recover)
	router.POST("/verify", h.verify)
	router.GET("/session", h.session)
}

func (h *AuthHandler) signUp(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.client.SignUp(c.Request.Context(), creds)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Check your email to verify your account.",
	})
}

func (h *AuthHandler) signIn(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.client.SignIn(c.Request.Context(), creds)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) signOut(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	if err := h.client.SignOut(c.Request.Context(), token); err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type recoverRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) recover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.client.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If an account exists for that address, a reset email is on its way."})
}

type verifyRequest struct {
	TokenHash string `json:"token_hash"`
	Type      string `json:"type"`
}

func (h *AuthHandler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TokenHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification token is required"})
		return
	}

	user, err := h.client.VerifyEmailToken(c.Request.Context(), req.TokenHash, req.Type)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "message": "Email verified."})
}

func (h *AuthHandler) session(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.client.UserFromToken(c.Request.Context(), token)
	if err != nil {
		h.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) renderAuthError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": authDisabledMessage})
		return
	}

	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		status := upstreamErr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": upstreamErr.Error()})
		return
	}

	renderError(c, err)
}
