package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/services"
)

type AdminHandler struct {
	adminService    *services.AdminService
	eventService    *services.EventService
	userService     *services.UserService
	proposalService *services.ProposalService
}

func NewAdminHandler(
	adminService *services.AdminService,
	eventService *services.EventService,
	userService *services.UserService,
	proposalService *services.ProposalService,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		eventService:    eventService,
		userService:     userService,
		proposalService: proposalService,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

// Login authenticates an admin and returns a JWT
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	token, admin, err := h.adminService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"token": token,
		"admin": admin,
	}})
}

// CreateAdmin registers a new admin. Super admin only.
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	admin, err := h.adminService.CreateAdmin(c.GetString("admin_id"), req.Name, req.Email, req.Password, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotSuperAdmin):
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": admin})
}

// ListAdmins returns all admins. Super admin only.
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.adminService.ListAdmins(c.GetString("admin_id"))
	if err != nil {
		if errors.Is(err, services.ErrNotSuperAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load admins"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": admins})
}

// Dashboard returns the platform overview counters
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// ListAllEvents returns every event including closed ones. Admin only.
func (h *AdminHandler) ListAllEvents(c *gin.Context) {
	events, err := h.eventService.ListEvents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

// ListUsers returns every registered user. Admin only.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

// ListProposals returns every proposal. Admin only.
func (h *AdminHandler) ListProposals(c *gin.Context) {
	proposals, err := h.proposalService.ListProposals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load proposals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": proposals})
}
