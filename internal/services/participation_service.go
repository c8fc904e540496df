package services

import (
	"errors"

	"github.com/forgedao/forgeboard/internal/models"
)

// ParticipationStatsStore aggregates recorded activities.
type ParticipationStatsStore interface {
	GetParticipationStats(participationID string) (*models.ParticipationStats, error)
}

// ParticipationStore is the persistence surface for participations.
type ParticipationStore interface {
	GetByID(id string) (*models.EventParticipation, error)
	GetEventLeaderboard(eventID string) ([]*models.LeaderboardEntry, error)
	UpdateStats(id string, stats *models.ParticipationStats) error
}

// ParticipationService maintains participation aggregates and serves
// event leaderboards.
type ParticipationService struct {
	participations ParticipationStore
	activities     ParticipationStatsStore
}

func NewParticipationService(participations ParticipationStore, activities ParticipationStatsStore) *ParticipationService {
	return &ParticipationService{
		participations: participations,
		activities:     activities,
	}
}

// RefreshStats recomputes a participation's aggregates from its
// recorded activities and persists them. The recompute is a full pass,
// so repeated calls converge on the same values.
func (s *ParticipationService) RefreshStats(participationID string) (*models.ParticipationStats, error) {
	if participationID == "" {
		return nil, errors.New("participation ID is required")
	}

	stats, err := s.activities.GetParticipationStats(participationID)
	if err != nil {
		return nil, err
	}

	if err := s.participations.UpdateStats(participationID, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// GetLeaderboard returns the ranked standings of an event.
func (s *ParticipationService) GetLeaderboard(eventID string) ([]*models.LeaderboardEntry, error) {
	if eventID == "" {
		return nil, errors.New("event ID is required")
	}
	return s.participations.GetEventLeaderboard(eventID)
}
