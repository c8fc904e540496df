package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/pkg/logger"
)

// GitHubMetricsProvider fetches a user's public GitHub footprint for
// ranking.
type GitHubMetricsProvider interface {
	FetchMetrics(ctx context.Context, username string) (*models.GitHubMetrics, error)
}

// GithubMetricsService collects per-user GitHub metrics using the
// platform's server token. Per-repository requests are throttled to
// stay inside GitHub's secondary rate limits.
type GithubMetricsService struct {
	client      *github.Client
	limiter     *rate.Limiter
	recentYears int
}

func NewGithubMetricsService(token string, weights models.RankWeights) *GithubMetricsService {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}

	return &GithubMetricsService{
		client:      client,
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		recentYears: weights.RecentYears,
	}
}

// countFromResponse turns a per_page=1 list response into a total count
// using the pagination trailer.
func countFromResponse(resp *github.Response, pageLen int) int {
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage
	}
	return pageLen
}

// FetchMetrics aggregates stars, commits, pull requests, issues, and
// recent commit activity across all of a user's repositories. Failures
// on individual repositories are logged and skipped.
func (s *GithubMetricsService) FetchMetrics(ctx context.Context, username string) (*models.GitHubMetrics, error) {
	metrics := &models.GitHubMetrics{}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	starred, resp, err := s.client.Activity.ListStarred(ctx, username, &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list starred repos of %s: %w", username, err)
	}
	metrics.Stars = countFromResponse(resp, len(starred))

	repos, err := s.listRepositories(ctx, username)
	if err != nil {
		return nil, err
	}

	recentSince := time.Now().AddDate(-s.recentYears, 0, 0)
	for _, repo := range repos {
		if repo.GetFork() {
			continue
		}
		if err := s.collectRepoMetrics(ctx, username, repo.GetName(), recentSince, metrics); err != nil {
			logger.WithError(err).WithField("repo", repo.GetFullName()).Warn("Skipping repository during metrics collection")
		}
	}

	return metrics, nil
}

func (s *GithubMetricsService) listRepositories(ctx context.Context, username string) ([]*github.Repository, error) {
	opts := &github.RepositoryListOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Repository
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := s.client.Repositories.List(ctx, username, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s: %w", username, err)
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func (s *GithubMetricsService) collectRepoMetrics(ctx context.Context, username, repo string, recentSince time.Time, metrics *models.GitHubMetrics) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	commits, resp, err := s.client.Repositories.ListCommits(ctx, username, repo, &github.CommitsListOptions{
		Author:      username,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return err
	}
	metrics.Commits += countFromResponse(resp, len(commits))

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	recent, resp, err := s.client.Repositories.ListCommits(ctx, username, repo, &github.CommitsListOptions{
		Author:      username,
		Since:       recentSince,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return err
	}
	metrics.RecentActivity += countFromResponse(resp, len(recent))

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	prQuery := fmt.Sprintf("repo:%s/%s author:%s type:pr", username, repo, username)
	prResult, _, err := s.client.Search.Issues(ctx, prQuery, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return err
	}
	metrics.PullRequests += prResult.GetTotal()

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	issueQuery := fmt.Sprintf("repo:%s/%s author:%s type:issue", username, repo, username)
	issueResult, _, err := s.client.Search.Issues(ctx, issueQuery, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return err
	}
	metrics.Issues += issueResult.GetTotal()

	return nil
}
