package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// Proposal flow errors mapped to HTTP statuses by handlers.
var (
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrNotProposalOwner  = errors.New("only the proposal owner can do this")
	ErrOwnerCannotCollab = errors.New("proposal owners collaborate on their own repository directly")
)

// ProposalStore is the persistence surface for proposals.
type ProposalStore interface {
	Create(p *models.Proposal) error
	GetByID(id string) (*models.Proposal, error)
	GetAll() ([]*models.Proposal, error)
	GetByUser(userID string) ([]*models.Proposal, error)
	Update(p *models.Proposal) error
	Delete(id string) error
}

// ContributionStore records collaboration acts.
type ContributionStore interface {
	Create(c *models.Contribution) error
	GetByProposal(proposalID string) ([]*models.Contribution, error)
	GetByUser(userID string) ([]*models.Contribution, error)
}

// ProposalUserStore looks up users for collaboration checks.
type ProposalUserStore interface {
	GetByID(id string) (*models.User, error)
}

// CollaborationGateway performs the GitHub operations of the proposal
// collaboration flow.
type CollaborationGateway interface {
	ExtractRepoInfo(repoURL string) (owner, repo string, err error)
	CreateBranchInFork(ctx context.Context, token, owner, repo, branchName string) (forkURL string, err error)
	CreatePullRequestFromFork(ctx context.Context, token, owner, repo, branchName, title, body string) (*github.PullRequest, error)
	MergePullRequest(ctx context.Context, token, owner, repo string, number int) error
	ListOpenPullRequests(ctx context.Context, token, owner, repo string) ([]*github.PullRequest, error)
}

// ProposalService manages proposals and the GitHub collaboration flow
// around them.
type ProposalService struct {
	proposals     ProposalStore
	contributions ContributionStore
	users         ProposalUserStore
	repos         CollaborationGateway
}

func NewProposalService(proposals ProposalStore, contributions ContributionStore, users ProposalUserStore, repos CollaborationGateway) *ProposalService {
	return &ProposalService{
		proposals:     proposals,
		contributions: contributions,
		users:         users,
		repos:         repos,
	}
}

// CreateProposal validates and stores a new proposal.
func (s *ProposalService) CreateProposal(p *models.Proposal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.proposals.Create(p)
}

// GetProposal retrieves a single proposal.
func (s *ProposalService) GetProposal(id string) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListProposals returns all proposals.
func (s *ProposalService) ListProposals() ([]*models.Proposal, error) {
	return s.proposals.GetAll()
}

// ListUserProposals returns the proposals created by a user.
func (s *ProposalService) ListUserProposals(userID string) ([]*models.Proposal, error) {
	return s.proposals.GetByUser(userID)
}

// UpdateProposal applies changes to a proposal. Owner only.
func (s *ProposalService) UpdateProposal(p *models.Proposal, userID string) error {
	existing, err := s.GetProposal(p.ID)
	if err != nil {
		return err
	}
	if !existing.IsOwner(userID) {
		return ErrNotProposalOwner
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.proposals.Update(p)
}

// DeleteProposal removes a proposal. Owner only.
func (s *ProposalService) DeleteProposal(id, userID string) error {
	existing, err := s.GetProposal(id)
	if err != nil {
		return err
	}
	if !existing.IsOwner(userID) {
		return ErrNotProposalOwner
	}
	return s.proposals.Delete(id)
}

// CreateCollaborationBranch forks the proposal repository into the
// collaborator's account and creates a working branch in the fork.
// Proposal owners are rejected; they work on the upstream directly.
func (s *ProposalService) CreateCollaborationBranch(ctx context.Context, proposalID, userID string) (string, error) {
	proposal, err := s.GetProposal(proposalID)
	if err != nil {
		return "", err
	}
	if proposal.IsOwner(userID) {
		return "", ErrOwnerCannotCollab
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", ErrUserNotFound
	}
	if !user.HasGithubToken() {
		return "", ErrNoGithubToken
	}

	owner, repo, err := s.repos.ExtractRepoInfo(proposal.RepositoryLink)
	if err != nil {
		return "", err
	}

	branchName := fmt.Sprintf("%s-%s-%d", user.Username, userID[:8], time.Now().UnixMilli())
	if _, err := s.repos.CreateBranchInFork(ctx, user.AccessToken, owner, repo, branchName); err != nil {
		return "", fmt.Errorf("failed to create collaboration branch: %w", err)
	}

	if err := s.contributions.Create(models.NewBranchContribution(proposalID, userID, branchName)); err != nil {
		logger.WithError(err).WithField("proposal_id", proposalID).Error("Failed to record branch contribution")
	}

	return branchName, nil
}

// CreatePullRequest opens a pull request from the collaborator's fork
// branch against the proposal repository.
func (s *ProposalService) CreatePullRequest(ctx context.Context, proposalID, userID, branchName, title, body string) (*github.PullRequest, error) {
	proposal, err := s.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.IsOwner(userID) {
		return nil, ErrOwnerCannotCollab
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.HasGithubToken() {
		return nil, ErrNoGithubToken
	}

	owner, repo, err := s.repos.ExtractRepoInfo(proposal.RepositoryLink)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = fmt.Sprintf("Contribution to %s by %s", proposal.Title, user.Username)
	}

	pr, err := s.repos.CreatePullRequestFromFork(ctx, user.AccessToken, owner, repo, branchName, title, body)
	if err != nil {
		return nil, err
	}

	contribution := models.NewPullRequestContribution(proposalID, userID, pr.GetNumber(), models.ContributionActionCreated)
	if err := s.contributions.Create(contribution); err != nil {
		logger.WithError(err).WithField("proposal_id", proposalID).Error("Failed to record pull request contribution")
	}

	return pr, nil
}

// ListOpenPullRequests lists open pull requests on the proposal
// repository. Owner only.
func (s *ProposalService) ListOpenPullRequests(ctx context.Context, proposalID, userID string) ([]*github.PullRequest, error) {
	proposal, err := s.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOwner(userID) {
		return nil, ErrNotProposalOwner
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.HasGithubToken() {
		return nil, ErrNoGithubToken
	}

	owner, repo, err := s.repos.ExtractRepoInfo(proposal.RepositoryLink)
	if err != nil {
		return nil, err
	}

	return s.repos.ListOpenPullRequests(ctx, user.AccessToken, owner, repo)
}

// MergePullRequest merges a pull request on the proposal repository and
// records the merge for the contributor. Owner only.
func (s *ProposalService) MergePullRequest(ctx context.Context, proposalID, ownerUserID string, prNumber int, contributorUserID string) error {
	proposal, err := s.GetProposal(proposalID)
	if err != nil {
		return err
	}
	if !proposal.IsOwner(ownerUserID) {
		return ErrNotProposalOwner
	}

	user, err := s.users.GetByID(ownerUserID)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.HasGithubToken() {
		return ErrNoGithubToken
	}

	owner, repo, err := s.repos.ExtractRepoInfo(proposal.RepositoryLink)
	if err != nil {
		return err
	}

	if err := s.repos.MergePullRequest(ctx, user.AccessToken, owner, repo, prNumber); err != nil {
		return err
	}

	if contributorUserID != "" {
		contribution := models.NewPullRequestContribution(proposalID, contributorUserID, prNumber, models.ContributionActionMerged)
		if err := s.contributions.Create(contribution); err != nil {
			logger.WithError(err).WithField("proposal_id", proposalID).Error("Failed to record merged contribution")
		}
	}

	return nil
}

// GetContributions returns the contribution log of a proposal.
func (s *ProposalService) GetContributions(proposalID string) ([]*models.Contribution, error) {
	if _, err := s.GetProposal(proposalID); err != nil {
		return nil, err
	}
	return s.contributions.GetByProposal(proposalID)
}
