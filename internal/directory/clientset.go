package directory

import (
	"context"
	"fmt"

	"contribdir.dev/internal/directory/github"
)

// ClientSet aggregates the external clients used by the application.
type ClientSet struct {
	store Store
	opts  ClientSetOptions
}

// ClientSetOptions holds configuration for initializing a ClientSet.
type ClientSetOptions struct {
	github   []github.ClientOption
	service  []ServiceOption
	metadata MetadataClient
}

// ClientSetOption applies a configuration to ClientSetOptions.
type ClientSetOption func(*ClientSetOptions)

// WithGitHubOptions forwards GitHub client options into the ClientSet configuration.
func WithGitHubOptions(opts ...github.ClientOption) ClientSetOption {
	return func(o *ClientSetOptions) { o.github = append(o.github, opts...) }
}

// WithServiceOptions forwards service options into the ClientSet configuration.
func WithServiceOptions(opts ...ServiceOption) ClientSetOption {
	return func(o *ClientSetOptions) { o.service = append(o.service, opts...) }
}

// WithMetadataClient replaces the GitHub-backed metadata client.
func WithMetadataClient(m MetadataClient) ClientSetOption {
	return func(o *ClientSetOptions) { o.metadata = m }
}

// NewClientSet constructs a ClientSet with the given store and options.
func NewClientSet(store Store, opts ...ClientSetOption) *ClientSet {
	var o ClientSetOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &ClientSet{store: store, opts: o}
}

// GitHub returns a configured GitHub metadata client.
func (cs *ClientSet) GitHub() *github.Client {
	return github.NewClient(cs.opts.github...)
}

// Directory returns the directory service wired to the configured clients.
func (cs *ClientSet) Directory() *Service {
	gh := cs.opts.metadata
	if gh == nil {
		gh = cs.GitHub()
	}
	return NewService(cs.store, gh, cs.opts.service...)
}

// Ping verifies that the record store is reachable.
func (cs *ClientSet) Ping(ctx context.Context) error {
	if cs.store == nil {
		return fmt.Errorf("clients not configured")
	}
	return cs.store.Ping(ctx)
}
