package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgedao/forgeboard/internal/models"
)

type fakeParticipationStore struct {
	participations map[string]*models.EventParticipation
	leaderboards   map[string][]*models.LeaderboardEntry
	updatedStats   map[string]*models.ParticipationStats
}

func newFakeParticipationStore() *fakeParticipationStore {
	return &fakeParticipationStore{
		participations: make(map[string]*models.EventParticipation),
		leaderboards:   make(map[string][]*models.LeaderboardEntry),
		updatedStats:   make(map[string]*models.ParticipationStats),
	}
}

func (s *fakeParticipationStore) GetByID(id string) (*models.EventParticipation, error) {
	p, ok := s.participations[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (s *fakeParticipationStore) GetEventLeaderboard(eventID string) ([]*models.LeaderboardEntry, error) {
	return s.leaderboards[eventID], nil
}

func (s *fakeParticipationStore) UpdateStats(id string, stats *models.ParticipationStats) error {
	s.updatedStats[id] = stats
	return nil
}

type fakeStatsStore struct {
	stats map[string]*models.ParticipationStats
}

func (s *fakeStatsStore) GetParticipationStats(participationID string) (*models.ParticipationStats, error) {
	stats, ok := s.stats[participationID]
	if !ok {
		return &models.ParticipationStats{}, nil
	}
	return stats, nil
}

func TestRefreshStats(t *testing.T) {
	participations := newFakeParticipationStore()
	when := time.Now()
	activities := &fakeStatsStore{stats: map[string]*models.ParticipationStats{
		"part-1": {
			TotalCommits:     3,
			TotalPRs:         1,
			LinesAdded:       120,
			LinesDeleted:     40,
			Score:            42,
			LastActivityDate: &when,
		},
	}}

	service := NewParticipationService(participations, activities)

	stats, err := service.RefreshStats("part-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCommits)
	assert.Equal(t, 42, stats.Score)
	assert.Equal(t, stats, participations.updatedStats["part-1"])

	// A second pass recomputes from scratch and converges.
	again, err := service.RefreshStats("part-1")
	assert.NoError(t, err)
	assert.Equal(t, stats, again)
}

func TestRefreshStatsRequiresID(t *testing.T) {
	service := NewParticipationService(newFakeParticipationStore(), &fakeStatsStore{})

	_, err := service.RefreshStats("")
	assert.Error(t, err)
}

func TestGetLeaderboard(t *testing.T) {
	participations := newFakeParticipationStore()
	participations.leaderboards["event-1"] = []*models.LeaderboardEntry{
		{Position: 1, Username: "first", Score: 30},
		{Position: 2, Username: "second", Score: 30},
		{Position: 3, Username: "third", Score: 10},
	}

	service := NewParticipationService(participations, &fakeStatsStore{})

	entries, err := service.GetLeaderboard("event-1")
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Username)

	_, err = service.GetLeaderboard("")
	assert.Error(t, err)
}
