// controller/auth_controller.go
package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{authService: authService}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login endpoint
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	result, err := ac.authService.Login(c.Request.Context(), req.Username, req.Password, clientInfoFromRequest(c))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":         result.AccessToken.Token,
		"access_token_expires": result.AccessToken.ExpiresAt,
		"refresh_token":        result.RefreshToken.Token,
		"session_uuid":         result.AccessToken.SessionID,
		"user":                 result.User,
	})
}

// Refresh endpoint
func (ac *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid refresh data", err)
		return
	}

	accessToken, err := ac.authService.Refresh(c.Request.Context(), req.RefreshToken, clientInfoFromRequest(c))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":         accessToken.Token,
		"access_token_expires": accessToken.ExpiresAt,
		"session_uuid":         accessToken.SessionID,
	})
}

// Logout endpoint
func (ac *AuthController) Logout(c *gin.Context) {
	ident := util.GetIdentityFromContext(c)
	if ident == nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthenticated", nil)
		return
	}

	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // refresh token is optional

	if err := ac.authService.Logout(c.Request.Context(), ident, req.RefreshToken); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me endpoint returns the caller's resolved identity snapshot
func (ac *AuthController) Me(c *gin.Context) {
	ident := util.GetIdentityFromContext(c)
	if ident == nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthenticated", nil)
		return
	}
	c.JSON(http.StatusOK, ident)
}

// clientInfoFromRequest derives login metadata from the request. The
// user-agent parse is intentionally coarse; logs need a family name, not a
// full fingerprint.
func clientInfoFromRequest(c *gin.Context) service.ClientInfo {
	ua := c.Request.UserAgent()
	return service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: ua,
		OS:        parseOS(ua),
		Browser:   parseBrowser(ua),
		Device:    parseDevice(ua),
	}
}

func parseOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

func parseBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"):
		return "Edge"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func parseDevice(ua string) string {
	switch {
	case strings.Contains(ua, "Mobile"):
		return "Mobile"
	case strings.Contains(ua, "Tablet"), strings.Contains(ua, "iPad"):
		return "Tablet"
	default:
		return "Desktop"
	}
}
