package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgedao/forgeboard/internal/models"
)

type fakeActivityStore struct {
	activities []*models.EventActivity
}

func (s *fakeActivityStore) Exists(participationID, activityType, githubSHA string) (bool, error) {
	for _, a := range s.activities {
		if a.ParticipationID == participationID && a.ActivityType == activityType && a.GithubSHA == githubSHA {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeActivityStore) Create(activity *models.EventActivity) error {
	s.activities = append(s.activities, activity)
	return nil
}

func (s *fakeActivityStore) GetEventFeed(eventID string, limit int) ([]*models.FeedEntry, error) {
	var entries []*models.FeedEntry
	for _, a := range s.activities {
		if a.EventID != eventID {
			continue
		}
		if len(entries) == limit {
			break
		}
		entries = append(entries, &models.FeedEntry{EventActivity: *a, Username: "octocat"})
	}
	return entries, nil
}

func newTestActivityService() (*ActivityService, *fakeActivityStore) {
	store := &fakeActivityStore{}
	return NewActivityService(store, models.DefaultActivityPoints()), store
}

func TestActivityServiceRecord(t *testing.T) {
	service, store := newTestActivityService()

	activity, created, err := service.Record(ActivityInput{
		ParticipationID: "part-1",
		EventID:         "event-1",
		UserID:          "user-1",
		ActivityType:    models.ActivityCommit,
		GithubSHA:       "abc123",
		CommitMessage:   "Add parser",
		Change:          models.ChangeMetrics{LinesAdded: 100, LinesDeleted: 40, FilesChanged: 4},
	})

	assert.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, activity)
	assert.NotEmpty(t, activity.ID)
	// 2 + min(10, 20) + min(2, 10) + min(2, 15) = 16
	assert.Equal(t, 16, activity.ScoreEarned)
	assert.Len(t, store.activities, 1)
}

func TestActivityServiceDeduplicates(t *testing.T) {
	service, store := newTestActivityService()

	input := ActivityInput{
		ParticipationID: "part-1",
		EventID:         "event-1",
		UserID:          "user-1",
		ActivityType:    models.ActivityCommit,
		GithubSHA:       "abc123",
	}

	_, created, err := service.Record(input)
	assert.NoError(t, err)
	assert.True(t, created)

	activity, created, err := service.Record(input)
	assert.NoError(t, err)
	assert.False(t, created, "same SHA must not be recorded twice")
	assert.Nil(t, activity)
	assert.Len(t, store.activities, 1)

	// Same SHA under a different type is a distinct activity.
	_, created, err = service.Record(ActivityInput{
		ParticipationID: "part-1",
		EventID:         "event-1",
		UserID:          "user-1",
		ActivityType:    models.ActivityPRMerged,
		GithubSHA:       "abc123",
	})
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, store.activities, 2)
}

func TestActivityServiceValidation(t *testing.T) {
	service, _ := newTestActivityService()

	_, _, err := service.Record(ActivityInput{
		EventID:      "event-1",
		UserID:       "user-1",
		ActivityType: models.ActivityCommit,
	})
	assert.Error(t, err, "participation ID is required")

	_, _, err = service.Record(ActivityInput{
		ParticipationID: "part-1",
		ActivityType:    "teleport",
	})
	assert.Error(t, err, "unknown activity types are rejected")
}

func TestActivityServiceKeepsActivityDate(t *testing.T) {
	service, store := newTestActivityService()

	when := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	_, _, err := service.Record(ActivityInput{
		ParticipationID: "part-1",
		EventID:         "event-1",
		UserID:          "user-1",
		ActivityType:    models.ActivityCommit,
		GithubSHA:       "abc123",
		ActivityDate:    when,
	})

	assert.NoError(t, err)
	assert.Equal(t, when, store.activities[0].ActivityDate)
}

func TestActivityServiceGetEventFeed(t *testing.T) {
	service, _ := newTestActivityService()

	for i := 0; i < 3; i++ {
		_, _, err := service.Record(ActivityInput{
			ParticipationID: "part-1",
			EventID:         "event-1",
			UserID:          "user-1",
			ActivityType:    models.ActivityCommit,
			GithubSHA:       fmt.Sprintf("sha-%d", i),
		})
		assert.NoError(t, err)
	}
	_, _, err := service.Record(ActivityInput{
		ParticipationID: "part-2",
		EventID:         "event-2",
		UserID:          "user-2",
		ActivityType:    models.ActivityCommit,
		GithubSHA:       "other",
	})
	assert.NoError(t, err)

	entries, err := service.GetEventFeed("event-1", 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 3, "only event-1 activities appear")

	entries, err = service.GetEventFeed("event-1", 2)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "octocat", entries[0].Username)
}
