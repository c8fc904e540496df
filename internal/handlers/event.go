package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/internal/services"
)

type EventHandler struct {
	eventService         *services.EventService
	participationService *services.ParticipationService
	activityService      *services.ActivityService
	syncService          *services.SyncService
	exportService        *services.ExportService
}

func NewEventHandler(
	eventService *services.EventService,
	participationService *services.ParticipationService,
	activityService *services.ActivityService,
	syncService *services.SyncService,
	exportService *services.ExportService,
) *EventHandler {
	return &EventHandler{
		eventService:         eventService,
		participationService: participationService,
		activityService:      activityService,
		syncService:          syncService,
		exportService:        exportService,
	}
}

type eventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	GithubRepo   string    `json:"github_repo"`
	VisibleRanks []string  `json:"visible_ranks"`
	EndDate      time.Time `json:"end_date"`
	Active       *bool     `json:"active"`
}

func eventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrRankNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrEventClosed),
		errors.Is(err, services.ErrAlreadyParticipating),
		errors.Is(err, services.ErrNoGithubToken),
		errors.Is(err, services.ErrNotParticipating):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// List returns the open events visible to the authenticated user's rank
func (h *EventHandler) List(c *gin.Context) {
	session := middleware.GetSession(c)

	events, err := h.eventService.ListVisibleEvents(session.Rank)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

// Get returns a single event
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Param("id"))
	if err != nil {
		eventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Create creates a new event. Admin only.
func (h *EventHandler) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	event := models.NewEvent(req.Title, req.Description, req.GithubRepo, req.VisibleRanks, req.EndDate, c.GetString("admin_id"))
	if err := h.eventService.CreateEvent(event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": event})
}

// Update applies changes to an event. Admin only.
func (h *EventHandler) Update(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Param("id"))
	if err != nil {
		eventError(c, err)
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.GithubRepo = req.GithubRepo
	event.VisibleRanks = req.VisibleRanks
	event.EndDate = req.EndDate
	if req.Active != nil {
		event.Active = *req.Active
	}

	if err := h.eventService.UpdateEvent(event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Delete removes an event. Admin only.
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.eventService.DeleteEvent(c.Param("id")); err != nil {
		eventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Participate joins the authenticated user into an event
func (h *EventHandler) Participate(c *gin.Context) {
	session := middleware.GetSession(c)

	participation, err := h.eventService.Participate(c.Request.Context(), c.Param("id"), session.UserID)
	if err != nil {
		eventError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": participation})
}

// Withdraw deactivates the authenticated user's participation
func (h *EventHandler) Withdraw(c *gin.Context) {
	session := middleware.GetSession(c)

	if err := h.eventService.Withdraw(c.Param("id"), session.UserID); err != nil {
		eventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyParticipations returns the authenticated user's participation history
func (h *EventHandler) MyParticipations(c *gin.Context) {
	session := middleware.GetSession(c)

	participations, err := h.eventService.GetUserParticipations(session.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load participations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": participations})
}

// Ranks lists the rank tiers events can be restricted to
func (h *EventHandler) Ranks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.RankTiers})
}

// ParticipationStatus reports the authenticated user's standing in an event
func (h *EventHandler) ParticipationStatus(c *gin.Context) {
	session := middleware.GetSession(c)

	participation, err := h.eventService.GetParticipationStatus(c.Param("id"), session.UserID)
	if err != nil {
		eventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"participating": participation != nil,
		"participation": participation,
	}})
}

// ActivityFeed returns the latest recorded activities across an event
func (h *EventHandler) ActivityFeed(c *gin.Context) {
	if _, err := h.eventService.GetEvent(c.Param("id")); err != nil {
		eventError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.activityService.GetEventFeed(c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load activity feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// Leaderboard returns the ranked standings of an event
func (h *EventHandler) Leaderboard(c *gin.Context) {
	if _, err := h.eventService.GetEvent(c.Param("id")); err != nil {
		eventError(c, err)
		return
	}

	entries, err := h.participationService.GetLeaderboard(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// ExportLeaderboard downloads the event leaderboard as an Excel workbook
func (h *EventHandler) ExportLeaderboard(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Param("id"))
	if err != nil {
		eventError(c, err)
		return
	}

	buf, err := h.exportService.ExportLeaderboard(event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to build export"})
		return
	}

	filename := fmt.Sprintf("leaderboard-%s.xlsx", event.ID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Sync triggers an immediate activity sync for an event
func (h *EventHandler) Sync(c *gin.Context) {
	if _, err := h.eventService.GetEvent(c.Param("id")); err != nil {
		eventError(c, err)
		return
	}

	if err := h.syncService.SyncEvent(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
