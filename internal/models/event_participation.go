package models

import (
	"time"

	"github.com/google/uuid"
)

// EventParticipation links a user to an event through their fork and
// working branch, and carries the aggregated activity stats.
type EventParticipation struct {
	ID                string     `json:"id"`
	EventID           string     `json:"event_id"`
	UserID            string     `json:"user_id"`
	GithubForkURL     string     `json:"github_fork_url"`
	BranchName        string     `json:"branch_name"`
	ParticipationDate time.Time  `json:"participation_date"`
	IsActive          bool       `json:"is_active"`
	TotalCommits      int        `json:"total_commits"`
	TotalPRs          int        `json:"total_prs"`
	LinesAdded        int        `json:"lines_added"`
	LinesDeleted      int        `json:"lines_deleted"`
	Score             int        `json:"score"`
	LastActivityDate  *time.Time `json:"last_activity_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewEventParticipation creates an active participation with a generated UUID.
func NewEventParticipation(eventID, userID, forkURL, branchName string) *EventParticipation {
	return &EventParticipation{
		ID:                uuid.New().String(),
		EventID:           eventID,
		UserID:            userID,
		GithubForkURL:     forkURL,
		BranchName:        branchName,
		ParticipationDate: time.Now(),
		IsActive:          true,
	}
}

// SyncWatermark returns the point in time from which new activity
// should be fetched.
func (p *EventParticipation) SyncWatermark() time.Time {
	if p.LastActivityDate != nil {
		return *p.LastActivityDate
	}
	return p.ParticipationDate
}

// ParticipationStats is the recomputed aggregate over a participation's
// recorded activities.
type ParticipationStats struct {
	TotalCommits     int        `json:"total_commits"`
	TotalPRs         int        `json:"total_prs"`
	LinesAdded       int        `json:"lines_added"`
	LinesDeleted     int        `json:"lines_deleted"`
	Score            int        `json:"score"`
	LastActivityDate *time.Time `json:"last_activity_date"`
}

// LeaderboardEntry is one row of an event leaderboard.
type LeaderboardEntry struct {
	Position     int        `json:"position"`
	UserID       string     `json:"user_id"`
	Username     string     `json:"username"`
	UserRank     string     `json:"user_rank"`
	Score        int        `json:"score"`
	TotalCommits int        `json:"total_commits"`
	TotalPRs     int        `json:"total_prs"`
	LinesAdded   int        `json:"lines_added"`
	LinesDeleted int        `json:"lines_deleted"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastActivity *time.Time `json:"last_activity"`
}

// SyncParticipation is a participation joined with the user and event
// fields the sync pass needs.
type SyncParticipation struct {
	Participation EventParticipation `json:"participation"`
	Username      string             `json:"username"`
	AccessToken   string             `json:"-"`
	GithubRepo    string             `json:"github_repo"`
}
