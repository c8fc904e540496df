package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgedao/forgeboard/internal/models"
)

type fakeUserStore struct {
	users   map[string]*models.User
	patches map[string]*models.UserPatch
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{
		users:   make(map[string]*models.User),
		patches: make(map[string]*models.UserPatch),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetAll() ([]*models.User, error) {
	var all []*models.User
	for _, u := range s.users {
		all = append(all, u)
	}
	return all, nil
}

func (s *fakeUserStore) GetLeaderboard(limit int) ([]*models.User, error) { return s.GetAll() }
func (s *fakeUserStore) Count() (int, error)                             { return len(s.users), nil }

func (s *fakeUserStore) CountByRank() (map[string]int, error) {
	counts := make(map[string]int)
	for _, u := range s.users {
		counts[u.Rank]++
	}
	return counts, nil
}

func (s *fakeUserStore) Patch(id string, patch *models.UserPatch) error {
	s.patches[id] = patch
	if patch.Rank != nil {
		s.users[id].Rank = *patch.Rank
	}
	if patch.TotalScore != nil {
		s.users[id].TotalScore = *patch.TotalScore
	}
	return nil
}

type fakeCounter struct{ count int }

func (c *fakeCounter) CountByUser(userID string) (int, error) { return c.count, nil }

type fakeParticipationCounter struct {
	active int
	score  int
}

func (c *fakeParticipationCounter) CountActiveByUser(userID string) (int, error) { return c.active, nil }
func (c *fakeParticipationCounter) SumScoreByUser(userID string) (int, error)    { return c.score, nil }

type fakeActivityCounter struct{ stats models.UserActivityStats }

func (c *fakeActivityCounter) GetUserActivityStats(userID string, since time.Time) (*models.UserActivityStats, error) {
	stats := c.stats
	return &stats, nil
}

type fakeMetricsProvider struct {
	metrics models.GitHubMetrics
	err     error
}

func (p *fakeMetricsProvider) FetchMetrics(ctx context.Context, username string) (*models.GitHubMetrics, error) {
	if p.err != nil {
		return nil, p.err
	}
	metrics := p.metrics
	return &metrics, nil
}

func newTestRankingService(user *models.User, metrics models.GitHubMetrics, proposals, contributions, activeEvents, eventScore int, activityStats models.UserActivityStats) (*RankingService, *fakeUserStore) {
	users := newFakeUserStore(user)
	service := NewRankingService(
		users,
		&fakeCounter{count: proposals},
		&fakeCounter{count: contributions},
		&fakeParticipationCounter{active: activeEvents, score: eventScore},
		&fakeActivityCounter{stats: activityStats},
		&fakeMetricsProvider{metrics: metrics},
		models.DefaultRankWeights(),
	)
	return service, users
}

func TestComputeRankingZeroFootprint(t *testing.T) {
	user := models.NewUser(1, "newcomer")
	service, _ := newTestRankingService(user, models.GitHubMetrics{}, 0, 0, 0, 0, models.UserActivityStats{})

	result, err := service.ComputeRanking(context.Background(), user)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, result.TotalScore, 0.001)
	assert.Equal(t, models.RankCodeNovice, result.Rank)
}

func TestComputeRankingProposalsAlone(t *testing.T) {
	// Five proposals max out the proposal sub-score at 30 points,
	// which lands in the second tier on its own.
	user := models.NewUser(2, "builder")
	service, _ := newTestRankingService(user, models.GitHubMetrics{}, 5, 0, 0, 0, models.UserActivityStats{})

	result, err := service.ComputeRanking(context.Background(), user)
	assert.NoError(t, err)
	assert.InDelta(t, 30.0, result.TotalScore, 0.001)
	assert.Equal(t, models.RankDevSavage, result.Rank)
	assert.InDelta(t, 30.0, result.Breakdown["proposals"].Score, 0.001)
}

func TestComputeRankingBreakdown(t *testing.T) {
	user := models.NewUser(3, "veteran")
	metrics := models.GitHubMetrics{
		Stars:          25,   // 5
		Commits:        500,  // 10
		PullRequests:   50,   // 5
		Issues:         25,   // 2.5
		RecentActivity: 100,  // 5
	}
	service, _ := newTestRankingService(user, metrics, 0, 25, 0, 0, models.UserActivityStats{})

	result, err := service.ComputeRanking(context.Background(), user)
	assert.NoError(t, err)

	assert.InDelta(t, 5.0, result.Breakdown["stars"].Score, 0.001)
	assert.InDelta(t, 10.0, result.Breakdown["commits"].Score, 0.001)
	assert.InDelta(t, 5.0, result.Breakdown["pull_requests"].Score, 0.001)
	assert.InDelta(t, 2.5, result.Breakdown["issues"].Score, 0.001)
	assert.InDelta(t, 5.0, result.Breakdown["recent_activity"].Score, 0.001)
	assert.InDelta(t, 10.0, result.Breakdown["contributions"].Score, 0.001)
	assert.InDelta(t, 37.5, result.TotalScore, 0.001)
	assert.Equal(t, models.RankDevSavage, result.Rank)
}

func TestComputeRankingCapsSubScores(t *testing.T) {
	user := models.NewUser(4, "prolific")
	metrics := models.GitHubMetrics{
		Stars:          1000000,
		Commits:        1000000,
		PullRequests:   1000000,
		Issues:         1000000,
		RecentActivity: 1000000,
	}
	service, _ := newTestRankingService(user, metrics, 1000, 1000, 1000, 1000000, models.UserActivityStats{Total: 1000, Recent: 1000})

	result, err := service.ComputeRanking(context.Background(), user)
	assert.NoError(t, err)

	// 10+20+10+5+10+30+20+6+6+3+2 = 122, clamped to the top tier.
	assert.InDelta(t, 122.0, result.TotalScore, 0.001)
	assert.Equal(t, models.RankForgeMaster, result.Rank)
}

func TestUpdateUserRankPersists(t *testing.T) {
	user := models.NewUser(5, "climber")
	service, users := newTestRankingService(user, models.GitHubMetrics{}, 5, 0, 0, 0, models.UserActivityStats{})

	result, err := service.UpdateUserRank(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.RankDevSavage, result.Rank)

	patch := users.patches[user.ID]
	assert.NotNil(t, patch)
	assert.Equal(t, models.RankDevSavage, *patch.Rank)
	assert.InDelta(t, 30.0, *patch.TotalScore, 0.001)
	assert.NotNil(t, patch.LastRankUpdate)
}

func TestUpdateUserRankUnknownUser(t *testing.T) {
	service, _ := newTestRankingService(models.NewUser(6, "someone"), models.GitHubMetrics{}, 0, 0, 0, 0, models.UserActivityStats{})

	_, err := service.UpdateUserRank(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecalculateAll(t *testing.T) {
	user := models.NewUser(7, "one-of-many")
	service, _ := newTestRankingService(user, models.GitHubMetrics{Stars: 50}, 0, 0, 0, 0, models.UserActivityStats{})

	outcomes, err := service.RecalculateAll(context.Background())
	assert.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, user.Username, outcomes[0].Username)
	assert.InDelta(t, 10.0, outcomes[0].Score, 0.001)
}

func TestGetStats(t *testing.T) {
	novice := models.NewUser(8, "a")
	master := models.NewUser(9, "b")
	master.Rank = models.RankForgeMaster

	users := newFakeUserStore(novice, master)
	service := NewRankingService(users, &fakeCounter{}, &fakeCounter{}, &fakeParticipationCounter{}, &fakeActivityCounter{}, &fakeMetricsProvider{}, models.DefaultRankWeights())

	stats, err := service.GetStats()
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.Distribution[models.RankCodeNovice])
	assert.Equal(t, 1, stats.Distribution[models.RankForgeMaster])
}

func TestComputeRankingSurvivesMetricsFailure(t *testing.T) {
	user := models.NewUser(9, "offline")
	users := newFakeUserStore(user)
	service := NewRankingService(
		users,
		&fakeCounter{count: 5},
		&fakeCounter{count: 0},
		&fakeParticipationCounter{},
		&fakeActivityCounter{},
		&fakeMetricsProvider{err: errors.New("api unreachable")},
		models.DefaultRankWeights(),
	)

	result, err := service.ComputeRanking(context.Background(), user)
	assert.NoError(t, err)
	assert.InDelta(t, 30.0, result.TotalScore, 0.001, "platform sub-scores still count")
	assert.InDelta(t, 0.0, result.Breakdown["commits"].Score, 0.001)
}
