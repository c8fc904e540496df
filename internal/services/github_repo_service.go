package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/\s]+)/([^/\s]+?)(?:\.git)?/?$`)

// ErrNoCommitsBetween is returned when a pull request would contain no
// commits.
var ErrNoCommitsBetween = errors.New("no commits between base and head")

// GithubRepoService wraps the GitHub API operations performed on behalf
// of users: forking, branching, opening and merging pull requests, and
// reading fork activity.
type GithubRepoService struct{}

func NewGithubRepoService() *GithubRepoService {
	return &GithubRepoService{}
}

func (s *GithubRepoService) client(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// ExtractRepoInfo parses a GitHub repository URL into owner and name.
func (s *GithubRepoService) ExtractRepoInfo(repoURL string) (owner, repo string, err error) {
	matches := repoURLPattern.FindStringSubmatch(strings.TrimSpace(repoURL))
	if matches == nil {
		return "", "", fmt.Errorf("invalid GitHub repository URL: %s", repoURL)
	}
	return matches[1], matches[2], nil
}

// AuthenticatedUser returns the login of the token's owner.
func (s *GithubRepoService) AuthenticatedUser(ctx context.Context, token string) (string, error) {
	client := s.client(ctx, token)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// ForkRepository forks the upstream repository into the token owner's
// account and returns the fork. Forking is asynchronous on GitHub's
// side; an AcceptedError still means the fork was queued.
func (s *GithubRepoService) ForkRepository(ctx context.Context, token, owner, repo string) (*github.Repository, error) {
	client := s.client(ctx, token)

	fork, _, err := client.Repositories.CreateFork(ctx, owner, repo, nil)
	if err != nil {
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			// A 422 usually means the fork already exists.
			var ghErr *github.ErrorResponse
			if !errors.As(err, &ghErr) || ghErr.Response.StatusCode != 422 {
				return nil, fmt.Errorf("failed to fork %s/%s: %w", owner, repo, err)
			}
		}
	}
	if fork != nil {
		return fork, nil
	}

	login, err := s.AuthenticatedUser(ctx, token)
	if err != nil {
		return nil, err
	}

	existing, _, err := client.Repositories.Get(ctx, login, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fork of %s/%s: %w", owner, repo, err)
	}

	return existing, nil
}

// CreateBranchInFork forks the upstream repository if needed and
// creates a new branch in the fork, based on the fork's default branch.
func (s *GithubRepoService) CreateBranchInFork(ctx context.Context, token, owner, repo, branchName string) (forkURL string, err error) {
	client := s.client(ctx, token)

	login, err := s.AuthenticatedUser(ctx, token)
	if err != nil {
		return "", err
	}

	fork, err := s.ForkRepository(ctx, token, owner, repo)
	if err != nil {
		return "", err
	}
	forkRepo := fork.GetName()
	if forkRepo == "" {
		forkRepo = repo
	}

	// Give GitHub a moment to finish creating the fork.
	time.Sleep(2 * time.Second)

	upstream, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to get upstream %s/%s: %w", owner, repo, err)
	}
	defaultBranch := upstream.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	baseRef, _, err := client.Git.GetRef(ctx, login, forkRepo, "refs/heads/"+defaultBranch)
	if err != nil {
		return "", fmt.Errorf("failed to get default branch of fork: %w", err)
	}

	// A 404 here is the expected case: the branch does not exist yet.
	_, resp, err := client.Git.GetRef(ctx, login, forkRepo, "refs/heads/"+branchName)
	if err == nil {
		return fork.GetHTMLURL(), nil
	}
	if resp == nil || resp.StatusCode != 404 {
		return "", fmt.Errorf("failed to check branch %s: %w", branchName, err)
	}

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + branchName),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := client.Git.CreateRef(ctx, login, forkRepo, newRef); err != nil {
		return "", fmt.Errorf("failed to create branch %s: %w", branchName, err)
	}

	return fork.GetHTMLURL(), nil
}

// CreatePullRequestFromFork opens a pull request from a branch of the
// token owner's fork against the upstream default branch.
func (s *GithubRepoService) CreatePullRequestFromFork(ctx context.Context, token, owner, repo, branchName, title, body string) (*github.PullRequest, error) {
	client := s.client(ctx, token)

	login, err := s.AuthenticatedUser(ctx, token)
	if err != nil {
		return nil, err
	}

	upstream, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get upstream %s/%s: %w", owner, repo, err)
	}
	base := upstream.GetDefaultBranch()
	if base == "" {
		base = "main"
	}

	head := login + ":" + branchName
	comparison, _, err := client.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}
	if comparison.GetTotalCommits() == 0 {
		return nil, ErrNoCommitsBetween
	}

	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title:               github.String(title),
		Body:                github.String(body),
		Head:                github.String(head),
		Base:                github.String(base),
		MaintainerCanModify: github.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	return pr, nil
}

// MergePullRequest merges an open pull request on the upstream repository.
func (s *GithubRepoService) MergePullRequest(ctx context.Context, token, owner, repo string, number int) error {
	client := s.client(ctx, token)

	_, _, err := client.PullRequests.Merge(ctx, owner, repo, number, "", nil)
	if err != nil {
		return fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}

	return nil
}

// ListOpenPullRequests lists open pull requests on a repository.
func (s *GithubRepoService) ListOpenPullRequests(ctx context.Context, token, owner, repo string) ([]*github.PullRequest, error) {
	client := s.client(ctx, token)

	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.PullRequest
	for {
		prs, resp, err := client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		all = append(all, prs...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListPullRequests lists all pull requests of a repository, any state.
func (s *GithubRepoService) ListPullRequests(ctx context.Context, token, owner, repo string) ([]*github.PullRequest, error) {
	client := s.client(ctx, token)

	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.PullRequest
	for {
		prs, resp, err := client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		all = append(all, prs...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListCommits lists the commits of a branch since a point in time.
func (s *GithubRepoService) ListCommits(ctx context.Context, token, owner, repo, branch string, since time.Time) ([]*github.RepositoryCommit, error) {
	client := s.client(ctx, token)

	opts := &github.CommitsListOptions{
		SHA:         branch,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.RepositoryCommit
	for {
		commits, resp, err := client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits of %s/%s@%s: %w", owner, repo, branch, err)
		}
		all = append(all, commits...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetCommit retrieves a single commit with its stats and file list.
func (s *GithubRepoService) GetCommit(ctx context.Context, token, owner, repo, sha string) (*github.RepositoryCommit, error) {
	client := s.client(ctx, token)

	commit, _, err := client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}

	return commit, nil
}
