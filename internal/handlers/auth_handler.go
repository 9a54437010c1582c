package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/services"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	cfg         *config.Config
	validator   *utils.Validator
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// TokenResponse carries the access token and the authenticated account.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewAuthHandler(
	authService services.AuthService,
	cfg *config.Config,
	validator *utils.Validator,
	logger utils.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		cfg:         cfg,
		validator:   validator,
	}
}

// Register creates a new account with a local password
// @Summary Register user
// @Description Creates a new account; self-registration is limited to the student role
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login authenticates with email and password
// @Summary Login
// @Description Authenticates a local account and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, User: user})
}

// GoogleLogin authenticates with a Google ID token
// @Summary Google login
// @Description Verifies a Google ID token and creates or links the local account
// @Tags auth
// @Accept json
// @Produce json
// @Param token body GoogleLoginRequest true "Google ID token"
// @Success 200 {object} TokenResponse
// @Failure 502 {object} ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, user, err := h.authService.LoginWithGoogleToken(c.Request.Context(), req.IDToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, User: user})
}

// OAuthLogin starts the authorization-code flow by redirecting to Google.
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
		return
	}

	oauthCfg := auth.OAuthConfig(h.cfg.GoogleClientID, h.cfg.GoogleClientSecret, h.cfg.OAuthRedirectURL)
	c.SetCookie(oauthStateCookie, state, 300, "/", "", h.cfg.Environment != "development", true)
	c.Redirect(http.StatusTemporaryRedirect, oauthCfg.AuthCodeURL(state))
}

// OAuthCallback completes the flow: it verifies the state, exchanges the
// code, logs the user in and redirects to the frontend with the token.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid OAuth state",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing authorization code",
		})
		return
	}

	oauthCfg := auth.OAuthConfig(h.cfg.GoogleClientID, h.cfg.GoogleClientSecret, h.cfg.OAuthRedirectURL)
	identity, err := auth.FetchIdentity(c.Request.Context(), oauthCfg, code)
	if err != nil {
		h.LogError(c, err, "OAuth code exchange failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Identity provider error",
		})
		return
	}

	token, _, err := h.authService.LoginWithIdentity(c.Request.Context(), identity, models.ProviderGoogle)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	redirect := h.cfg.FrontendURL + "/oauth/complete?token=" + url.QueryEscape(token)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

// Me returns the authenticated account
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SetPassword replaces the caller's local password
// @Summary Set password
// @Description Sets a local password, including for accounts created through OAuth
// @Tags auth
// @Accept json
// @Produce json
// @Param password body SetPasswordRequest true "New password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/set-password [post]
func (h *AuthHandler) SetPassword(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), caller.UserID, req.Password); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password updated"})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
