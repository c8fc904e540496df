package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"

	"github.com/forgedao/forgeboard/internal/models"
)

type fakeRepoReader struct {
	commits      []*github.RepositoryCommit
	pullRequests []*github.PullRequest
	commitErr    map[string]error
}

func (r *fakeRepoReader) ExtractRepoInfo(repoURL string) (string, string, error) {
	return NewGithubRepoService().ExtractRepoInfo(repoURL)
}

func (r *fakeRepoReader) ListCommits(ctx context.Context, token, owner, repo, branch string, since time.Time) ([]*github.RepositoryCommit, error) {
	return r.commits, nil
}

func (r *fakeRepoReader) GetCommit(ctx context.Context, token, owner, repo, sha string) (*github.RepositoryCommit, error) {
	if err, ok := r.commitErr[sha]; ok {
		return nil, err
	}
	for _, c := range r.commits {
		if c.GetSHA() == sha {
			return c, nil
		}
	}
	return nil, errors.New("commit not found")
}

func (r *fakeRepoReader) ListPullRequests(ctx context.Context, token, owner, repo string) ([]*github.PullRequest, error) {
	return r.pullRequests, nil
}

type fakeSyncSource struct {
	participations []*models.SyncParticipation
}

func (s *fakeSyncSource) GetActiveForSync() ([]*models.SyncParticipation, error) {
	return s.participations, nil
}

func (s *fakeSyncSource) GetByID(id string) (*models.EventParticipation, error) {
	for _, sp := range s.participations {
		if sp.Participation.ID == id {
			p := sp.Participation
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

// statsFromStore recomputes participation aggregates from the in-memory
// activity store, mirroring the SQL aggregate.
type statsFromStore struct {
	store *fakeActivityStore
}

func (s *statsFromStore) GetParticipationStats(participationID string) (*models.ParticipationStats, error) {
	stats := &models.ParticipationStats{}
	for _, a := range s.store.activities {
		if a.ParticipationID != participationID {
			continue
		}
		switch a.ActivityType {
		case models.ActivityCommit:
			stats.TotalCommits++
		case models.ActivityPRCreated, models.ActivityPRMerged:
			stats.TotalPRs++
		}
		stats.LinesAdded += a.LinesAdded
		stats.LinesDeleted += a.LinesDeleted
		stats.Score += a.ScoreEarned
		when := a.ActivityDate
		if stats.LastActivityDate == nil || when.After(*stats.LastActivityDate) {
			stats.LastActivityDate = &when
		}
	}
	return stats, nil
}

func commitFixture(sha, message string, additions int, withStats bool, when time.Time) *github.RepositoryCommit {
	c := &github.RepositoryCommit{
		SHA: github.String(sha),
		Commit: &github.Commit{
			Message: github.String(message),
			Author: &github.CommitAuthor{
				Date: &github.Timestamp{Time: when},
			},
		},
	}
	if withStats {
		c.Stats = &github.CommitStats{
			Additions: github.Int(additions),
			Deletions: github.Int(0),
		}
	}
	return c
}

func TestSyncAll(t *testing.T) {
	joined := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	participation := models.EventParticipation{
		ID:                "part-1",
		EventID:           "event-1",
		UserID:            "user-1",
		GithubForkURL:     "https://github.com/alice/platform",
		BranchName:        "event-event-1-alice-1",
		ParticipationDate: joined,
		IsActive:          true,
	}

	source := &fakeSyncSource{participations: []*models.SyncParticipation{{
		Participation: participation,
		Username:      "alice",
		AccessToken:   "token",
		GithubRepo:    "https://github.com/forgedao/platform",
	}}}

	reader := &fakeRepoReader{
		commits: []*github.RepositoryCommit{
			commitFixture("sha1", "Add parser", 10, true, joined.Add(time.Hour)),
			commitFixture("sha2", "Fix parser", 5, true, joined.Add(2*time.Hour)),
			commitFixture("sha3", "Docs", 0, false, joined.Add(3*time.Hour)),
		},
		pullRequests: []*github.PullRequest{
			{
				Number:    github.Int(7),
				Title:     github.String("Parser improvements"),
				User:      &github.User{Login: github.String("alice")},
				CreatedAt: &github.Timestamp{Time: joined.Add(4 * time.Hour)},
			},
			{
				// Different author, must be skipped.
				Number:    github.Int(8),
				User:      &github.User{Login: github.String("bob")},
				CreatedAt: &github.Timestamp{Time: joined.Add(4 * time.Hour)},
			},
			{
				// Predates the participation, must be skipped.
				Number:    github.Int(3),
				User:      &github.User{Login: github.String("alice")},
				CreatedAt: &github.Timestamp{Time: joined.Add(-time.Hour)},
			},
		},
		// The detail fetch for the statless commit fails; it is
		// recorded with zero change metrics.
		commitErr: map[string]error{"sha3": errors.New("boom")},
	}

	activityStore := &fakeActivityStore{}
	activityService := NewActivityService(activityStore, models.DefaultActivityPoints())
	participationStore := newFakeParticipationStore()
	participationStore.participations["part-1"] = &participation
	participationService := NewParticipationService(participationStore, &statsFromStore{store: activityStore})

	service := NewSyncService(source, activityService, participationService, reader, 2)

	assert.NoError(t, service.SyncAll(context.Background()))

	// 3 commits plus one pr_created record.
	assert.Len(t, activityStore.activities, 4)

	stats := participationStore.updatedStats["part-1"]
	assert.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalCommits)
	assert.Equal(t, 1, stats.TotalPRs)
	assert.Equal(t, 15, stats.LinesAdded)
	// Commits: 3 + 3 + 2, PR created: 10.
	assert.Equal(t, 18, stats.Score)
	assert.NotNil(t, stats.LastActivityDate)

	// A second pass records nothing new.
	assert.NoError(t, service.SyncAll(context.Background()))
	assert.Len(t, activityStore.activities, 4)
}

func TestSyncEventScopes(t *testing.T) {
	joined := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	makeSP := func(id, eventID string) *models.SyncParticipation {
		return &models.SyncParticipation{
			Participation: models.EventParticipation{
				ID:                id,
				EventID:           eventID,
				UserID:            "user-1",
				GithubForkURL:     "https://github.com/alice/platform",
				BranchName:        "branch",
				ParticipationDate: joined,
				IsActive:          true,
			},
			Username:    "alice",
			AccessToken: "token",
			GithubRepo:  "https://github.com/forgedao/platform",
		}
	}

	source := &fakeSyncSource{participations: []*models.SyncParticipation{
		makeSP("part-1", "event-1"),
		makeSP("part-2", "event-2"),
	}}

	reader := &fakeRepoReader{
		commits: []*github.RepositoryCommit{
			commitFixture("sha1", "Add parser", 10, true, joined.Add(time.Hour)),
		},
	}

	activityStore := &fakeActivityStore{}
	activityService := NewActivityService(activityStore, models.DefaultActivityPoints())
	participationStore := newFakeParticipationStore()
	participationService := NewParticipationService(participationStore, &statsFromStore{store: activityStore})

	service := NewSyncService(source, activityService, participationService, reader, 2)

	assert.NoError(t, service.SyncEvent(context.Background(), "event-1"))

	// Only the scoped event's participation was synced.
	assert.Len(t, activityStore.activities, 1)
	assert.Equal(t, "part-1", activityStore.activities[0].ParticipationID)
}

func TestMergedPullRequestRecordsTwice(t *testing.T) {
	joined := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	merged := joined.Add(5 * time.Hour)

	participation := models.EventParticipation{
		ID:                "part-1",
		EventID:           "event-1",
		UserID:            "user-1",
		GithubForkURL:     "https://github.com/alice/platform",
		BranchName:        "branch",
		ParticipationDate: joined,
		IsActive:          true,
	}

	source := &fakeSyncSource{participations: []*models.SyncParticipation{{
		Participation: participation,
		Username:      "alice",
		AccessToken:   "token",
		GithubRepo:    "https://github.com/forgedao/platform",
	}}}

	reader := &fakeRepoReader{
		pullRequests: []*github.PullRequest{{
			Number:    github.Int(9),
			Title:     github.String("Finished work"),
			User:      &github.User{Login: github.String("alice")},
			CreatedAt: &github.Timestamp{Time: joined.Add(time.Hour)},
			Merged:    github.Bool(true),
			MergedAt:  &github.Timestamp{Time: merged},
		}},
	}

	activityStore := &fakeActivityStore{}
	activityService := NewActivityService(activityStore, models.DefaultActivityPoints())
	participationStore := newFakeParticipationStore()
	participationService := NewParticipationService(participationStore, &statsFromStore{store: activityStore})

	service := NewSyncService(source, activityService, participationService, reader, 1)

	assert.NoError(t, service.SyncAll(context.Background()))

	assert.Len(t, activityStore.activities, 2)
	types := []string{activityStore.activities[0].ActivityType, activityStore.activities[1].ActivityType}
	assert.Contains(t, types, models.ActivityPRCreated)
	assert.Contains(t, types, models.ActivityPRMerged)
	for _, a := range activityStore.activities {
		// Pull requests are keyed by their bare number.
		assert.Equal(t, "9", a.GithubSHA)
	}

	stats := participationStore.updatedStats["part-1"]
	assert.Equal(t, 2, stats.TotalPRs)
	// 10 for opening plus 20 for the merge.
	assert.Equal(t, 30, stats.Score)
}
