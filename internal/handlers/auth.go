package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-portal-server/internal/config"
	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/upstream"
	"clinic-portal-server/internal/utils"
)

// AuthHandler proxies authentication to the clinic backend. The portal never
// issues or verifies tokens itself; it forwards credentials, stores the
// resulting token in an HTTP-only cookie and forwards it on later calls.
type AuthHandler struct {
	Upstream *upstream.Client
	Cfg      *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *upstream.Client, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Upstream: client, Cfg: cfg}
}

// LoginRequest represents the request body for clinic login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login forwards credentials to the auth backend and, on success, sets the
// clinic session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.Upstream.Login(c.Request.Context(), upstream.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.FromError(c, err)
		return
	}

	if result.Token != "" {
		c.SetCookie(h.Cfg.CookieName, result.Token, h.Cfg.CookieMaxAge, "/", "", h.Cfg.CookieSecure, true)
	}
	utils.Success(c, "Login successful", result)
}

// RegisterRequest represents the request body for registering a new clinic.
type RegisterRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	ContactNo string `json:"contactNo" binding:"required,len=11,numeric"`
	Address   string `json:"address" binding:"required"`
	LicenseNo string `json:"licenseNo"`
}

// Register forwards a clinic registration to the backend.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.Upstream.Register(c.Request.Context(), upstream.Registration{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		ContactNo: req.ContactNo,
		Address:   req.Address,
		LicenseNo: req.LicenseNo,
	})
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "Clinic registered successfully", result)
}

// Verify asks the backend whether the current session token is still valid.
func (h *AuthHandler) Verify(c *gin.Context) {
	token, _ := middleware.TokenFromContext(c)
	if err := h.Upstream.WithToken(token).VerifyAuth(c.Request.Context()); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Authenticated", nil)
}

// Logout clears the session cookie. The token itself lives and dies on the
// backend.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.Cfg.CookieName, "", -1, "/", "", h.Cfg.CookieSecure, true)
	utils.Success(c, "Logged out", nil)
}
