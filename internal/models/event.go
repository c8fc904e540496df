package models

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var githubRepoPattern = regexp.MustCompile(`^https://github\.com/[^/\s]+/[^/\s]+/?$`)

// Event is a time-boxed challenge tied to a GitHub repository.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	GithubRepo   string    `json:"github_repo"`
	VisibleRanks []string  `json:"visible_ranks"`
	EndDate      time.Time `json:"end_date"`
	CreatedBy    string    `json:"created_by"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEvent creates a new Event with a generated UUID.
func NewEvent(title, description, githubRepo string, visibleRanks []string, endDate time.Time, createdBy string) *Event {
	return &Event{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  description,
		GithubRepo:   githubRepo,
		VisibleRanks: visibleRanks,
		EndDate:      endDate,
		CreatedBy:    createdBy,
		Active:       true,
	}
}

// Validate checks the event fields for creation or update.
func (e *Event) Validate() error {
	if e.Title == "" {
		return errors.New("title is required")
	}
	if e.GithubRepo == "" {
		return errors.New("github repository is required")
	}
	if !githubRepoPattern.MatchString(e.GithubRepo) {
		return errors.New("github repository must be a https://github.com/owner/repo URL")
	}
	if e.EndDate.Before(time.Now()) {
		return errors.New("end date must be in the future")
	}
	if len(e.VisibleRanks) == 0 {
		return errors.New("at least one visible rank is required")
	}
	for _, rank := range e.VisibleRanks {
		if !ValidRank(rank) {
			return errors.New("unknown rank: " + rank)
		}
	}
	return nil
}

// IsExpired reports whether the event's end date has passed.
func (e *Event) IsExpired() bool {
	return time.Now().After(e.EndDate)
}

// IsOpen reports whether the event accepts participation and syncing.
func (e *Event) IsOpen() bool {
	return e.Active && !e.IsExpired()
}

// IsVisibleToRank reports whether users of the given rank can see and
// join this event.
func (e *Event) IsVisibleToRank(rank string) bool {
	for _, r := range e.VisibleRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// MarshalVisibleRanks encodes the visible rank list for storage.
func (e *Event) MarshalVisibleRanks() (string, error) {
	data, err := json.Marshal(e.VisibleRanks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalVisibleRanks decodes a stored visible rank list.
func (e *Event) UnmarshalVisibleRanks(data string) error {
	if data == "" {
		e.VisibleRanks = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &e.VisibleRanks)
}
