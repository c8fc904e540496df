package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/services"
	"github.com/forgedao/forgeboard/pkg/config"
	"github.com/forgedao/forgeboard/pkg/logger"
)

type AuthHandler struct {
	userService   *services.UserService
	githubService *services.GitHubService
}

func NewAuthHandler(userService *services.UserService, githubService *services.GitHubService) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		githubService: githubService,
	}
}

// GitHubLogin initiates the GitHub OAuth flow
func (h *AuthHandler) GitHubLogin(c *gin.Context) {
	authURL := h.githubService.GetAuthURL("login")
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GitHubCallback handles the GitHub OAuth callback
func (h *AuthHandler) GitHubCallback(c *gin.Context) {
	frontend := config.AppConfig.Server.FrontendURL

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, frontend+"/login?error=no_code")
		return
	}

	token, err := h.githubService.ExchangeCodeForToken(code)
	if err != nil {
		logger.WithError(err).Error("OAuth token exchange failed")
		c.Redirect(http.StatusFound, frontend+"/login?error=token_exchange_failed")
		return
	}

	githubUser, err := h.githubService.GetUserInfo(token)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch GitHub user profile")
		c.Redirect(http.StatusFound, frontend+"/login?error=user_info_failed")
		return
	}

	user, err := h.userService.UpsertFromGithub(githubUser, token.AccessToken)
	if err != nil {
		logger.WithError(err).WithField("username", githubUser.Login).Error("Failed to upsert user")
		c.Redirect(http.StatusFound, frontend+"/login?error=user_creation_failed")
		return
	}

	if err := middleware.SetSession(c, user.ID, user.Username, user.Rank); err != nil {
		c.Redirect(http.StatusFound, frontend+"/login?error=session_creation_failed")
		return
	}

	c.Redirect(http.StatusFound, frontend+"/dashboard")
}

// Me returns the currently authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c)

	user, err := h.userService.GetUser(session.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// Logout clears the user session
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
