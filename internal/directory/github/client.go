package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v75/github"
	"golang.org/x/time/rate"
	"k8s.io/utils/ptr"
)

// NewGitHubLimiter returns a rate limiter tuned for authenticated or unauthenticated GitHub API usage.
func NewGitHubLimiter(authenticated bool) *rate.Limiter {
	var limiter *rate.Limiter
	if authenticated {
		limiter = rate.NewLimiter(rate.Every(time.Hour), 5000)
		slog.Info(
			"Created authenticated GitHub rate limiter",
			"rate",
			"5000 requests/hour",
			"burst",
			10,
		)
	} else {
		limiter = rate.NewLimiter(rate.Every(time.Hour), 60)
		slog.Info("Created unauthenticated GitHub rate limiter", "rate", "60 requests/hour", "burst", 1)
	}
	return limiter
}

// RepoInfo carries the repository fields copied into a project at creation
// time. Languages maps language name to bytes of code.
type RepoInfo struct {
	Description     string
	HTMLURL         string
	OwnerAvatarURL  string
	StargazersCount int64
	OpenIssueCount  int64
}

// Client wraps the GitHub API client with rate limiting.
type Client struct {
	c *github.Client
	l *rate.Limiter
}

// ClientOptions configures the GitHub client.
type ClientOptions struct {
	token   string
	limiter *rate.Limiter
}

// ClientOption applies a configuration to ClientOptions.
type ClientOption func(*ClientOptions)

// WithToken sets the personal access token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(o *ClientOptions) { o.token = token }
}

// WithLimiter sets the rate limiter used for API calls.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(o *ClientOptions) { o.limiter = l }
}

// NewClient constructs a GitHub Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	var o ClientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.token != "" {
		slog.Info("Using authenticated GitHub client")
		if o.limiter == nil {
			o.limiter = NewGitHubLimiter(true)
		}
		return &Client{c: github.NewClient(nil).WithAuthToken(o.token), l: o.limiter}
	}
	slog.Warn("Using unauthenticated GitHub client (rate limited)")
	if o.limiter == nil {
		o.limiter = NewGitHubLimiter(false)
	}
	return &Client{c: github.NewClient(nil), l: o.limiter}
}

// GetRepoInfo retrieves the repository fields used to enrich a project.
func (c *Client) GetRepoInfo(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	if err := c.l.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}
	ghRepo, _, err := c.c.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo info for %s/%s: %w", owner, repo, err)
	}
	info := &RepoInfo{
		Description:     ptr.Deref(ghRepo.Description, ""),
		HTMLURL:         ptr.Deref(ghRepo.HTMLURL, ""),
		StargazersCount: int64(ptr.Deref(ghRepo.StargazersCount, 0)),
		OpenIssueCount:  int64(ptr.Deref(ghRepo.OpenIssuesCount, 0)),
	}
	if ghRepo.Owner != nil {
		info.OwnerAvatarURL = ptr.Deref(ghRepo.Owner.AvatarURL, "")
	}
	return info, nil
}

// ListLanguages retrieves the language breakdown for the given repository.
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	if err := c.l.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}
	langs, _, err := c.c.Repositories.ListLanguages(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages for %s/%s: %w", owner, repo, err)
	}
	return langs, nil
}
