package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a GitHub-authenticated contributor.
type User struct {
	ID             string     `json:"id"`
	GithubID       int64      `json:"github_id"`
	Username       string     `json:"username"`
	Bio            string     `json:"bio"`
	WalletAddress  string     `json:"wallet_address"`
	AccessToken    string     `json:"-"`
	Rank           string     `json:"rank"`
	TotalScore     float64    `json:"total_score"`
	LastRankUpdate *time.Time `json:"last_rank_update"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewUser creates a new User with a generated UUID and the starting rank.
func NewUser(githubID int64, username string) *User {
	return &User{
		ID:       uuid.New().String(),
		GithubID: githubID,
		Username: username,
		Rank:     RankCodeNovice,
	}
}

// HasGithubToken reports whether the user has a stored OAuth access token.
func (u *User) HasGithubToken() bool {
	return u.AccessToken != ""
}

// UserPatch describes a sparse update to a user. Nil fields are left
// untouched.
type UserPatch struct {
	Username       *string
	Bio            *string
	WalletAddress  *string
	AccessToken    *string
	Rank           *string
	TotalScore     *float64
	LastRankUpdate *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p *UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Bio == nil && p.WalletAddress == nil &&
		p.AccessToken == nil && p.Rank == nil && p.TotalScore == nil &&
		p.LastRankUpdate == nil
}
