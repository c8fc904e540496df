package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// SyncSource lists participations eligible for syncing.
type SyncSource interface {
	GetActiveForSync() ([]*models.SyncParticipation, error)
	GetByID(id string) (*models.EventParticipation, error)
}

// RepoActivityReader reads fork activity from GitHub.
type RepoActivityReader interface {
	ExtractRepoInfo(repoURL string) (owner, repo string, err error)
	ListCommits(ctx context.Context, token, owner, repo, branch string, since time.Time) ([]*github.RepositoryCommit, error)
	GetCommit(ctx context.Context, token, owner, repo, sha string) (*github.RepositoryCommit, error)
	ListPullRequests(ctx context.Context, token, owner, repo string) ([]*github.PullRequest, error)
}

// SyncService pulls GitHub activity into event participations. Each
// participation is synced by at most one goroutine at a time.
type SyncService struct {
	source         SyncSource
	activities     *ActivityService
	participations *ParticipationService
	repos          RepoActivityReader
	concurrency    int

	// one mutex per participation ID
	locks sync.Map
}

func NewSyncService(source SyncSource, activities *ActivityService, participations *ParticipationService, repos RepoActivityReader, concurrency int) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		source:         source,
		activities:     activities,
		participations: participations,
		repos:          repos,
		concurrency:    concurrency,
	}
}

// SyncAll syncs every eligible participation. Individual failures are
// logged and do not abort the pass.
func (s *SyncService) SyncAll(ctx context.Context) error {
	participations, err := s.source.GetActiveForSync()
	if err != nil {
		return fmt.Errorf("failed to list participations for sync: %w", err)
	}

	return s.syncBatch(ctx, participations)
}

// SyncEvent syncs the eligible participations of a single event.
func (s *SyncService) SyncEvent(ctx context.Context, eventID string) error {
	all, err := s.source.GetActiveForSync()
	if err != nil {
		return fmt.Errorf("failed to list participations for sync: %w", err)
	}

	var scoped []*models.SyncParticipation
	for _, sp := range all {
		if sp.Participation.EventID == eventID {
			scoped = append(scoped, sp)
		}
	}

	return s.syncBatch(ctx, scoped)
}

func (s *SyncService) syncBatch(ctx context.Context, participations []*models.SyncParticipation) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, sp := range participations {
		sp := sp
		g.Go(func() error {
			if err := s.syncParticipation(ctx, sp); err != nil {
				logger.WithError(err).WithFields(map[string]interface{}{
					"participation_id": sp.Participation.ID,
					"username":         sp.Username,
				}).Error("Participation sync failed")
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *SyncService) syncParticipation(ctx context.Context, sp *models.SyncParticipation) error {
	value, _ := s.locks.LoadOrStore(sp.Participation.ID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	if !mu.TryLock() {
		// Still being synced by a previous pass.
		return nil
	}
	defer mu.Unlock()

	forkOwner, forkRepo, err := s.repos.ExtractRepoInfo(sp.Participation.GithubForkURL)
	if err != nil {
		return fmt.Errorf("invalid fork URL: %w", err)
	}
	upstreamOwner, upstreamRepo, err := s.repos.ExtractRepoInfo(sp.GithubRepo)
	if err != nil {
		return fmt.Errorf("invalid event repository URL: %w", err)
	}

	since := sp.Participation.SyncWatermark()

	if err := s.syncCommits(ctx, sp, forkOwner, forkRepo, since); err != nil {
		return err
	}
	if err := s.syncPullRequests(ctx, sp, forkOwner, upstreamOwner, upstreamRepo, since); err != nil {
		return err
	}

	if _, err := s.participations.RefreshStats(sp.Participation.ID); err != nil {
		return fmt.Errorf("failed to refresh stats: %w", err)
	}

	return nil
}

func (s *SyncService) syncCommits(ctx context.Context, sp *models.SyncParticipation, forkOwner, forkRepo string, since time.Time) error {
	commits, err := s.repos.ListCommits(ctx, sp.AccessToken, forkOwner, forkRepo, sp.Participation.BranchName, since)
	if err != nil {
		return fmt.Errorf("failed to list fork commits: %w", err)
	}

	for _, commit := range commits {
		sha := commit.GetSHA()

		recorded, err := s.activities.AlreadyRecorded(sp.Participation.ID, models.ActivityCommit, sha)
		if err != nil {
			logger.WithError(err).WithField("sha", sha).Error("Failed to check recorded commit")
			continue
		}
		if recorded {
			continue
		}

		change := commitChange(commit)
		if commit.GetStats() == nil {
			// The list endpoint omits stats; fetch the full commit.
			detailed, err := s.repos.GetCommit(ctx, sp.AccessToken, forkOwner, forkRepo, sha)
			if err != nil {
				logger.WithError(err).WithField("sha", sha).Warn("Recording commit without stats")
			} else {
				change = commitChange(detailed)
			}
		}

		_, _, err = s.activities.Record(ActivityInput{
			ParticipationID: sp.Participation.ID,
			EventID:         sp.Participation.EventID,
			UserID:          sp.Participation.UserID,
			ActivityType:    models.ActivityCommit,
			GithubSHA:       sha,
			CommitMessage:   commit.GetCommit().GetMessage(),
			Change:          change,
			ActivityDate:    commit.GetCommit().GetAuthor().GetDate().Time,
		})
		if err != nil {
			logger.WithError(err).WithField("sha", sha).Error("Failed to record commit")
		}
	}

	return nil
}

func (s *SyncService) syncPullRequests(ctx context.Context, sp *models.SyncParticipation, forkOwner, upstreamOwner, upstreamRepo string, since time.Time) error {
	prs, err := s.repos.ListPullRequests(ctx, sp.AccessToken, upstreamOwner, upstreamRepo)
	if err != nil {
		return fmt.Errorf("failed to list upstream pull requests: %w", err)
	}

	for _, pr := range prs {
		if pr.GetUser().GetLogin() != forkOwner {
			continue
		}
		if pr.GetCreatedAt().Time.Before(since) {
			continue
		}

		prKey := strconv.Itoa(pr.GetNumber())
		metadata := map[string]string{
			"pr_number": prKey,
			"pr_url":    pr.GetHTMLURL(),
			"pr_title":  pr.GetTitle(),
		}

		_, _, err := s.activities.Record(ActivityInput{
			ParticipationID: sp.Participation.ID,
			EventID:         sp.Participation.EventID,
			UserID:          sp.Participation.UserID,
			ActivityType:    models.ActivityPRCreated,
			GithubSHA:       prKey,
			CommitMessage:   pr.GetTitle(),
			Metadata:        metadata,
			ActivityDate:    pr.GetCreatedAt().Time,
		})
		if err != nil {
			logger.WithError(err).WithField("pr", prKey).Error("Failed to record pull request")
		}

		if pr.GetMerged() || pr.MergedAt != nil {
			_, _, err := s.activities.Record(ActivityInput{
				ParticipationID: sp.Participation.ID,
				EventID:         sp.Participation.EventID,
				UserID:          sp.Participation.UserID,
				ActivityType:    models.ActivityPRMerged,
				GithubSHA:       prKey,
				CommitMessage:   pr.GetTitle(),
				Metadata:        metadata,
				ActivityDate:    pr.GetMergedAt().Time,
			})
			if err != nil {
				logger.WithError(err).WithField("pr", prKey).Error("Failed to record merged pull request")
			}
		}
	}

	return nil
}

func commitChange(commit *github.RepositoryCommit) models.ChangeMetrics {
	stats := commit.GetStats()
	if stats == nil {
		return models.ChangeMetrics{}
	}
	return models.ChangeMetrics{
		LinesAdded:   stats.GetAdditions(),
		LinesDeleted: stats.GetDeletions(),
		FilesChanged: len(commit.Files),
	}
}
