package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event activity types.
const (
	ActivityForkCreated   = "fork_created"
	ActivityBranchCreated = "branch_created"
	ActivityCommit        = "commit"
	ActivityPRCreated     = "pr_created"
	ActivityPRMerged      = "pr_merged"
)

// EventActivity is one scored piece of GitHub activity inside an event
// participation.
type EventActivity struct {
	ID              string            `json:"id"`
	ParticipationID string            `json:"participation_id"`
	EventID         string            `json:"event_id"`
	UserID          string            `json:"user_id"`
	ActivityType    string            `json:"activity_type"`
	GithubSHA       string            `json:"github_sha"`
	CommitMessage   string            `json:"commit_message"`
	FilesChanged    int               `json:"files_changed"`
	LinesAdded      int               `json:"lines_added"`
	LinesDeleted    int               `json:"lines_deleted"`
	ScoreEarned     int               `json:"score_earned"`
	Metadata        map[string]string `json:"metadata"`
	ActivityDate    time.Time         `json:"activity_date"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewEventActivity creates an activity record with a generated UUID.
func NewEventActivity(participationID, eventID, userID, activityType string) *EventActivity {
	return &EventActivity{
		ID:              uuid.New().String(),
		ParticipationID: participationID,
		EventID:         eventID,
		UserID:          userID,
		ActivityType:    activityType,
		Metadata:        map[string]string{},
		ActivityDate:    time.Now(),
	}
}

// ValidActivityType reports whether t is a known activity type.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityForkCreated, ActivityBranchCreated, ActivityCommit,
		ActivityPRCreated, ActivityPRMerged:
		return true
	}
	return false
}

// MarshalMetadata encodes the metadata map for storage.
func (a *EventActivity) MarshalMetadata() (string, error) {
	if a.Metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(a.Metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalMetadata decodes stored metadata.
func (a *EventActivity) UnmarshalMetadata(data string) error {
	if data == "" {
		a.Metadata = map[string]string{}
		return nil
	}
	return json.Unmarshal([]byte(data), &a.Metadata)
}

// FeedEntry is one activity in an event's public feed, with the acting
// user's name attached.
type FeedEntry struct {
	EventActivity
	Username string `json:"username"`
}

// UserActivityStats aggregates a user's event activities for ranking.
type UserActivityStats struct {
	Total  int `json:"total"`
	Recent int `json:"recent"`
}
