package services

import (
	"errors"
	"time"

	"github.com/forgedao/forgeboard/internal/models"
)

// ActivityStore is the persistence surface the activity service needs.
type ActivityStore interface {
	Exists(participationID, activityType, githubSHA string) (bool, error)
	Create(activity *models.EventActivity) error
	GetEventFeed(eventID string, limit int) ([]*models.FeedEntry, error)
}

// ActivityService scores and records event activities with idempotent
// deduplication on (participation, type, SHA).
type ActivityService struct {
	store  ActivityStore
	points models.ActivityPoints
}

func NewActivityService(store ActivityStore, points models.ActivityPoints) *ActivityService {
	return &ActivityService{store: store, points: points}
}

// ActivityInput describes one piece of GitHub activity to record.
type ActivityInput struct {
	ParticipationID string
	EventID         string
	UserID          string
	ActivityType    string
	GithubSHA       string
	CommitMessage   string
	Change          models.ChangeMetrics
	Metadata        map[string]string
	ActivityDate    time.Time
}

// CalculateScore returns the points an activity would earn.
func (s *ActivityService) CalculateScore(activityType string, change models.ChangeMetrics) int {
	return s.points.Score(activityType, change)
}

// AlreadyRecorded reports whether an equivalent activity exists.
func (s *ActivityService) AlreadyRecorded(participationID, activityType, githubSHA string) (bool, error) {
	return s.store.Exists(participationID, activityType, githubSHA)
}

// Record scores and persists an activity. Returns the record and
// whether it was newly created; a duplicate returns created == false
// with no error.
func (s *ActivityService) Record(input ActivityInput) (*models.EventActivity, bool, error) {
	if input.ParticipationID == "" {
		return nil, false, errors.New("participation ID is required")
	}
	if !models.ValidActivityType(input.ActivityType) {
		return nil, false, errors.New("unknown activity type: " + input.ActivityType)
	}

	exists, err := s.store.Exists(input.ParticipationID, input.ActivityType, input.GithubSHA)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	activity := models.NewEventActivity(input.ParticipationID, input.EventID, input.UserID, input.ActivityType)
	activity.GithubSHA = input.GithubSHA
	activity.CommitMessage = input.CommitMessage
	activity.FilesChanged = input.Change.FilesChanged
	activity.LinesAdded = input.Change.LinesAdded
	activity.LinesDeleted = input.Change.LinesDeleted
	activity.ScoreEarned = s.points.Score(input.ActivityType, input.Change)
	if input.Metadata != nil {
		activity.Metadata = input.Metadata
	}
	if !input.ActivityDate.IsZero() {
		activity.ActivityDate = input.ActivityDate
	}

	if err := s.store.Create(activity); err != nil {
		return nil, false, err
	}

	return activity, true, nil
}

// GetEventFeed returns the newest recorded activities in an event.
func (s *ActivityService) GetEventFeed(eventID string, limit int) ([]*models.FeedEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.GetEventFeed(eventID, limit)
}
