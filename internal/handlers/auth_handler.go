package handlers

import (
	"net/http"
	"strings"

	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler serves registration, sign-in, federated auth, and token
// verification
type AuthHandler struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required registration fields"})
		return
	}

	resp, err := h.auth.SignUp(&req, c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	resp, err := h.auth.SignIn(&req, c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Google handles POST /api/auth/google
func (h *AuthHandler) Google(c *gin.Context) {
	var req models.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Mode != "signin" && req.Mode != "signup" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be signin or signup"})
		return
	}

	resp, err := h.auth.GoogleAuth(&req, c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Verify handles POST /api/auth/verify: resolves a bearer token to its
// account so clients can restore a session
func (h *AuthHandler) Verify(c *gin.Context) {
	token := bearerFromRequest(c)

	user, err := h.auth.Verify(token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user_id":    user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"is_admin":   h.auth.IsAdmin(user),
	})
}

// SignOut handles POST /api/auth/signout. Revoking an unknown token still
// answers 200 so clients can always clear local state.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := bearerFromRequest(c)

	if err := h.auth.SignOut(token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"signed_out": true})
}

// bearerFromRequest pulls a token from the Authorization header, falling
// back to a {"token": …} body
func bearerFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.Token
	}
	return ""
}
