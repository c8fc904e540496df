package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Proposal is a project idea anchored to a GitHub repository, open for
// collaboration through branches and pull requests.
type Proposal struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	RepositoryLink  string    `json:"repository_link"`
	GithubIssueLink string    `json:"github_issue_link"`
	BranchName      *string   `json:"branch_name"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewProposal creates a new Proposal with a generated UUID.
func NewProposal(title, description, repositoryLink, issueLink, createdBy string) *Proposal {
	return &Proposal{
		ID:              uuid.New().String(),
		Title:           title,
		Description:     description,
		RepositoryLink:  repositoryLink,
		GithubIssueLink: issueLink,
		CreatedBy:       createdBy,
	}
}

// Validate checks the proposal fields for creation or update.
func (p *Proposal) Validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if p.RepositoryLink == "" {
		return errors.New("repository link is required")
	}
	if !githubRepoPattern.MatchString(p.RepositoryLink) {
		return errors.New("repository link must be a https://github.com/owner/repo URL")
	}
	return nil
}

// IsOwner reports whether userID created this proposal.
func (p *Proposal) IsOwner(userID string) bool {
	return p.CreatedBy == userID
}
