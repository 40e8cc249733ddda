package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/config"
	"github.com/lumenbooth/firefly-booth/internal/middleware"
	"github.com/lumenbooth/firefly-booth/internal/utils"
)

// AuthHandler issues access tokens to booth staff.  There is no user
// table; the staff and admin accounts come from configuration.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler { return &AuthHandler{Cfg: cfg} }

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	Role    string    `json:"role"`
}

// StaffLogin handles POST /v1/auth/staff-login.
func (h *AuthHandler) StaffLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	role, ok := h.authenticate(req.Username, req.Password)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp, Role: role})
}

func (h *AuthHandler) authenticate(user, pass string) (string, bool) {
	accounts := []struct{ user, hash, role string }{
		{h.Cfg.AdminUser, h.Cfg.AdminPasswordHash, middleware.RoleAdmin},
		{h.Cfg.StaffUser, h.Cfg.StaffPasswordHash, middleware.RoleStaff},
	}
	for _, a := range accounts {
		if subtle.ConstantTimeCompare([]byte(a.user), []byte(user)) == 1 && utils.VerifyPassword(a.hash, pass) {
			return a.role, true
		}
	}
	return "", false
}
