package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type updateProfileRequest struct {
	Bio           *string `json:"bio"`
	WalletAddress *string `json:"wallet_address"`
}

// GetProfile returns a user's public profile by username
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUserByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateProfile updates the authenticated user's bio and wallet address
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	session := middleware.GetSession(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	user, err := h.userService.UpdateProfile(session.UserID, req.Bio, req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// GetActivities returns the authenticated user's recent event activities
func (h *UserHandler) GetActivities(c *gin.Context) {
	session := middleware.GetSession(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	activities, err := h.userService.GetRecentActivities(session.UserID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": activities})
}
