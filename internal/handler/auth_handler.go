package handler

import (
	"net/http"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/middleware"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidBody = "Invalid request body"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Signup request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	logger.Log.Info("User signup attempt",
		zap.String("username", req.Username),
		zap.String("email", req.Email),
		zap.String("user_type", req.UserType),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		UserType: req.UserType,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 3. Set token in HTTP-only cookie
	h.setSessionCookie(c, result.Token)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": result.Message,
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Signin request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	logger.Log.Info("User signin attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	result, err := h.authService.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, result.Token)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"user":    result.User,
		"token":   result.Token,
	})
}

// Google responds with the bare user object, which is what the client's
// OAuth flow expects.
func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	result, err := h.authService.Google(c.Request.Context(), service.GoogleInput{
		Email: req.Email,
		Name:  req.Name,
		Photo: req.Photo,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, result.User)
}

func (h *AuthHandler) Signout(c *gin.Context) {
	h.authService.Signout(c.Request.Context(), middleware.SessionToken(c))

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed out successfully",
	})
}

// Me returns the signed-in user. It runs behind RequireSession.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(apperr.Authentication("Authentication required"))
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		middleware.SessionCookie,
		token,
		int(h.authService.TokenTTL().Seconds()),
		"/",
		"",
		h.authService.IsProduction(), // secure (HTTPS-only in production)
		true,
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.authService.IsProduction(), true)
}
