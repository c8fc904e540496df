package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/internal/services"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
}

func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

type proposalRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	RepositoryLink  string `json:"repository_link"`
	GithubIssueLink string `json:"github_issue_link"`
}

type pullRequestRequest struct {
	BranchName string `json:"branch_name"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

type mergeRequest struct {
	PRNumber          int    `json:"pr_number"`
	ContributorUserID string `json:"contributor_user_id"`
}

func proposalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrNotProposalOwner),
		errors.Is(err, services.ErrOwnerCannotCollab):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrNoGithubToken),
		errors.Is(err, services.ErrNoCommitsBetween):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// List returns all proposals
func (h *ProposalHandler) List(c *gin.Context) {
	proposals, err := h.proposalService.ListProposals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load proposals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": proposals})
}

// Get returns a single proposal with its contribution log
func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := h.proposalService.GetProposal(c.Param("id"))
	if err != nil {
		proposalError(c, err)
		return
	}

	contributions, err := h.proposalService.GetContributions(proposal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load contributions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"proposal":      proposal,
		"contributions": contributions,
	}})
}

// Create creates a new proposal for the authenticated user
func (h *ProposalHandler) Create(c *gin.Context) {
	session := middleware.GetSession(c)

	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	proposal := models.NewProposal(req.Title, req.Description, req.RepositoryLink, req.GithubIssueLink, session.UserID)
	if err := h.proposalService.CreateProposal(proposal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": proposal})
}

// Update applies changes to a proposal
func (h *ProposalHandler) Update(c *gin.Context) {
	session := middleware.GetSession(c)

	proposal, err := h.proposalService.GetProposal(c.Param("id"))
	if err != nil {
		proposalError(c, err)
		return
	}

	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	proposal.Title = req.Title
	proposal.Description = req.Description
	proposal.RepositoryLink = req.RepositoryLink
	proposal.GithubIssueLink = req.GithubIssueLink

	if err := h.proposalService.UpdateProposal(proposal, session.UserID); err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": proposal})
}

// Delete removes a proposal
func (h *ProposalHandler) Delete(c *gin.Context) {
	session := middleware.GetSession(c)

	if err := h.proposalService.DeleteProposal(c.Param("id"), session.UserID); err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateBranch forks the proposal repository and creates a
// collaboration branch for the authenticated user
func (h *ProposalHandler) CreateBranch(c *gin.Context) {
	session := middleware.GetSession(c)

	branchName, err := h.proposalService.CreateCollaborationBranch(c.Request.Context(), c.Param("id"), session.UserID)
	if err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"branch_name": branchName}})
}

// CreatePullRequest opens a pull request from the collaborator's fork
func (h *ProposalHandler) CreatePullRequest(c *gin.Context) {
	session := middleware.GetSession(c)

	var req pullRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BranchName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "branch_name is required"})
		return
	}

	pr, err := h.proposalService.CreatePullRequest(c.Request.Context(), c.Param("id"), session.UserID, req.BranchName, req.Title, req.Body)
	if err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{
		"pr_number": pr.GetNumber(),
		"pr_url":    pr.GetHTMLURL(),
	}})
}

// ListPullRequests lists open pull requests on the proposal repository
func (h *ProposalHandler) ListPullRequests(c *gin.Context) {
	session := middleware.GetSession(c)

	prs, err := h.proposalService.ListOpenPullRequests(c.Request.Context(), c.Param("id"), session.UserID)
	if err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": prs})
}

// MergePullRequest merges a pull request on the proposal repository
func (h *ProposalHandler) MergePullRequest(c *gin.Context) {
	session := middleware.GetSession(c)

	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PRNumber <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "pr_number is required"})
		return
	}

	err := h.proposalService.MergePullRequest(c.Request.Context(), c.Param("id"), session.UserID, req.PRNumber, req.ContributorUserID)
	if err != nil {
		proposalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
