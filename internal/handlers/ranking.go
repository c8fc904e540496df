package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/services"
)

type RankingHandler struct {
	rankingService *services.RankingService
}

func NewRankingHandler(rankingService *services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// GetLeaderboard returns the top users by total score
func (h *RankingHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	users, err := h.rankingService.GetLeaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

// GetStats returns the platform's rank distribution
func (h *RankingHandler) GetStats(c *gin.Context) {
	stats, err := h.rankingService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// RefreshMyRank recomputes and persists the authenticated user's rank
func (h *RankingHandler) RefreshMyRank(c *gin.Context) {
	session := middleware.GetSession(c)

	result, err := h.rankingService.UpdateUserRank(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "rank calculation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// RecalculateUser recomputes and persists one user's rank. Admin only.
func (h *RankingHandler) RecalculateUser(c *gin.Context) {
	result, err := h.rankingService.UpdateUserRank(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "rank calculation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// RecalculateAll recomputes ranks for every user. Admin only.
func (h *RankingHandler) RecalculateAll(c *gin.Context) {
	outcomes, err := h.rankingService.RecalculateAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "recalculation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": outcomes})
}
