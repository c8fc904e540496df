package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// ErrUserNotFound is returned when a ranking target does not exist.
var ErrUserNotFound = errors.New("user not found")

// RankingUserStore is the user persistence surface the ranking engine
// needs. Rank and score changes go through Patch only.
type RankingUserStore interface {
	GetByID(id string) (*models.User, error)
	GetAll() ([]*models.User, error)
	GetLeaderboard(limit int) ([]*models.User, error)
	Count() (int, error)
	CountByRank() (map[string]int, error)
	Patch(id string, patch *models.UserPatch) error
}

// ProposalCounter counts a user's proposals.
type ProposalCounter interface {
	CountByUser(userID string) (int, error)
}

// ContributionCounter counts a user's proposal contributions.
type ContributionCounter interface {
	CountByUser(userID string) (int, error)
}

// EventParticipationCounter aggregates a user's event participation for
// ranking.
type EventParticipationCounter interface {
	CountActiveByUser(userID string) (int, error)
	SumScoreByUser(userID string) (int, error)
}

// UserActivityCounter aggregates a user's event activities for ranking.
type UserActivityCounter interface {
	GetUserActivityStats(userID string, since time.Time) (*models.UserActivityStats, error)
}

// RankingService computes weighted contributor scores from GitHub
// metrics and platform activity, and maps them to rank tiers.
type RankingService struct {
	users          RankingUserStore
	proposals      ProposalCounter
	contributions  ContributionCounter
	participations EventParticipationCounter
	activities     UserActivityCounter
	metrics        GitHubMetricsProvider
	weights        models.RankWeights
}

func NewRankingService(
	users RankingUserStore,
	proposals ProposalCounter,
	contributions ContributionCounter,
	participations EventParticipationCounter,
	activities UserActivityCounter,
	metrics GitHubMetricsProvider,
	weights models.RankWeights,
) *RankingService {
	return &RankingService{
		users:          users,
		proposals:      proposals,
		contributions:  contributions,
		participations: participations,
		activities:     activities,
		metrics:        metrics,
		weights:        weights,
	}
}

func breakdown(raw float64, w models.SubScoreWeight) models.ScoreBreakdown {
	return models.ScoreBreakdown{
		Raw:    raw,
		Score:  w.Score(raw),
		Weight: fmt.Sprintf("%g%%", w.Points),
	}
}

// ComputeRanking calculates a user's total score and rank tier without
// persisting anything.
func (s *RankingService) ComputeRanking(ctx context.Context, user *models.User) (*models.RankingResult, error) {
	metrics, err := s.metrics.FetchMetrics(ctx, user.Username)
	if err != nil {
		// Ranking still proceeds from platform data alone.
		logger.WithError(err).WithField("username", user.Username).Warn("GitHub metrics unavailable, scoring with zeros")
		metrics = &models.GitHubMetrics{}
	}

	proposalCount, err := s.proposals.CountByUser(user.ID)
	if err != nil {
		return nil, err
	}
	contributionCount, err := s.contributions.CountByUser(user.ID)
	if err != nil {
		return nil, err
	}
	activeEvents, err := s.participations.CountActiveByUser(user.ID)
	if err != nil {
		return nil, err
	}
	eventScore, err := s.participations.SumScoreByUser(user.ID)
	if err != nil {
		return nil, err
	}
	recentWindow := time.Now().AddDate(0, 0, -s.weights.RecentWindowDay)
	activityStats, err := s.activities.GetUserActivityStats(user.ID, recentWindow)
	if err != nil {
		return nil, err
	}

	parts := map[string]models.ScoreBreakdown{
		"stars":               breakdown(float64(metrics.Stars), s.weights.Stars),
		"commits":             breakdown(float64(metrics.Commits), s.weights.Commits),
		"pull_requests":       breakdown(float64(metrics.PullRequests), s.weights.PullRequests),
		"issues":              breakdown(float64(metrics.Issues), s.weights.Issues),
		"recent_activity":     breakdown(float64(metrics.RecentActivity), s.weights.RecentActivity),
		"proposals":           breakdown(float64(proposalCount), s.weights.Proposals),
		"contributions":       breakdown(float64(contributionCount), s.weights.Contributions),
		"event_participation": breakdown(float64(activeEvents), s.weights.EventCount),
		"event_score":         breakdown(float64(eventScore), s.weights.EventScore),
		"activity_total":      breakdown(float64(activityStats.Total), s.weights.ActivityTotal),
		"activity_recent":     breakdown(float64(activityStats.Recent), s.weights.ActivityRecent),
	}

	var total float64
	for _, part := range parts {
		total += part.Score
	}
	total = math.Round(total*100) / 100

	return &models.RankingResult{
		TotalScore: total,
		Rank:       models.RankFromScore(total),
		Breakdown:  parts,
	}, nil
}

// UpdateUserRank computes and persists a user's score and rank.
func (s *RankingService) UpdateUserRank(ctx context.Context, userID string) (*models.RankingResult, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	result, err := s.ComputeRanking(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	patch := &models.UserPatch{
		Rank:           &result.Rank,
		TotalScore:     &result.TotalScore,
		LastRankUpdate: &now,
	}
	if err := s.users.Patch(userID, patch); err != nil {
		return nil, fmt.Errorf("failed to persist rank of %s: %w", user.Username, err)
	}

	return result, nil
}

// RecalculationOutcome is the per-user result of a bulk recalculation.
type RecalculationOutcome struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Success  bool    `json:"success"`
	Rank     string  `json:"rank,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RecalculateAll recomputes ranks for every user. Per-user failures are
// reported in the outcome list, not returned as errors.
func (s *RankingService) RecalculateAll(ctx context.Context) ([]RecalculationOutcome, error) {
	users, err := s.users.GetAll()
	if err != nil {
		return nil, err
	}

	outcomes := make([]RecalculationOutcome, 0, len(users))
	for _, user := range users {
		outcome := RecalculationOutcome{UserID: user.ID, Username: user.Username}

		result, err := s.UpdateUserRank(ctx, user.ID)
		if err != nil {
			outcome.Error = err.Error()
			logger.WithError(err).WithField("username", user.Username).Error("Rank recalculation failed")
		} else {
			outcome.Success = true
			outcome.Rank = result.Rank
			outcome.Score = result.TotalScore
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// GetLeaderboard returns the top users by total score.
func (s *RankingService) GetLeaderboard(limit int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.users.GetLeaderboard(limit)
}

// RankingStats summarizes the platform's rank distribution.
type RankingStats struct {
	TotalUsers   int               `json:"total_users"`
	Distribution map[string]int    `json:"distribution"`
	Tiers        []models.RankTier `json:"tiers"`
}

// GetStats returns the rank distribution across all users.
func (s *RankingService) GetStats() (*RankingStats, error) {
	total, err := s.users.Count()
	if err != nil {
		return nil, err
	}
	distribution, err := s.users.CountByRank()
	if err != nil {
		return nil, err
	}

	return &RankingStats{
		TotalUsers:   total,
		Distribution: distribution,
		Tiers:        models.RankTiers,
	}, nil
}
