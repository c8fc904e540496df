package models

import (
	"time"

	"github.com/google/uuid"
)

// Contribution types and actions.
const (
	ContributionBranch      = "branch"
	ContributionPullRequest = "pull_request"

	ContributionActionCreated = "created"
	ContributionActionMerged  = "merged"
)

// Contribution records a collaboration act on a proposal: a branch
// pushed or a pull request opened or merged.
type Contribution struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	BranchName *string   `json:"branch_name"`
	PRNumber   *int      `json:"pr_number"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewBranchContribution records a branch created on a proposal.
func NewBranchContribution(proposalID, userID, branchName string) *Contribution {
	return &Contribution{
		ID:         uuid.New().String(),
		ProposalID: proposalID,
		UserID:     userID,
		Type:       ContributionBranch,
		BranchName: &branchName,
		Action:     ContributionActionCreated,
	}
}

// NewPullRequestContribution records a pull request opened or merged on
// a proposal.
func NewPullRequestContribution(proposalID, userID string, prNumber int, action string) *Contribution {
	return &Contribution{
		ID:         uuid.New().String(),
		ProposalID: proposalID,
		UserID:     userID,
		Type:       ContributionPullRequest,
		PRNumber:   &prNumber,
		Action:     action,
	}
}
