package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contribdir.dev/internal/directory/github"
)

// ErrUnauthorized is returned when a mutation is attempted by a user who
// holds no link to the project.
var ErrUnauthorized = errors.New("user holds no link to this project")

// MetadataClient fetches descriptive repository metadata used to enrich a
// project at creation time.
type MetadataClient interface {
	GetRepoInfo(ctx context.Context, owner, repo string) (*github.RepoInfo, error)
	ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
}

// Service implements the directory operations on top of a Store, a
// metadata client and an authorization policy.
type Service struct {
	store           Store
	gh              MetadataClient
	authz           Authorizer
	defaultPageSize int
	maxPageSize     int
}

// ServiceOption applies a configuration to a Service.
type ServiceOption func(*Service)

// WithAuthorizer replaces the default link-lookup authorization policy.
func WithAuthorizer(a Authorizer) ServiceOption {
	return func(s *Service) { s.authz = a }
}

// WithPageSizes sets the default and maximum page size applied during
// search normalization.
func WithPageSizes(def, max int) ServiceOption {
	return func(s *Service) {
		s.defaultPageSize = def
		s.maxPageSize = max
	}
}

// NewService constructs a Service with the given store and metadata client.
func NewService(store Store, gh MetadataClient, opts ...ServiceOption) *Service {
	s := &Service{
		store:           store,
		gh:              gh,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.authz == nil {
		s.authz = NewLinkAuthorizer(store)
	}
	return s
}

// CreateProjectInput carries the caller-supplied fields of a new project.
// RepoSlug is required; descriptive fields left empty are filled from the
// repository metadata.
type CreateProjectInput struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	RepoSlug         string `json:"repo_slug"`
	BannerURL        string `json:"banner_url"`
	GroupTag         string `json:"group_tag"`
	ContributionTags string `json:"contribution_tags"`
	PaidBounty       bool   `json:"paid_bounty"`
}

// CreateProject enriches the input with repository metadata, inserts the
// project and grants the creator an owner link in one transaction. A
// malformed slug or a failed metadata fetch aborts before any store
// mutation.
func (s *Service) CreateProject(
	ctx context.Context,
	userID uuid.UUID,
	in CreateProjectInput,
) (*Project, error) {
	owner, repo, err := ParseRepoSlug(in.RepoSlug)
	if err != nil {
		return nil, err
	}

	var info *github.RepoInfo
	var langs map[string]int
	wg, wctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		var gerr error
		info, gerr = s.gh.GetRepoInfo(wctx, owner, repo)
		return gerr
	})
	wg.Go(func() error {
		var gerr error
		langs, gerr = s.gh.ListLanguages(wctx, owner, repo)
		return gerr
	})
	if err := wg.Wait(); err != nil {
		return nil, fmt.Errorf("fetch repository metadata for %s/%s: %w", owner, repo, err)
	}

	name := in.Name
	if name == "" {
		name = repo
	}
	description := in.Description
	if description == "" {
		description = info.Description
	}
	repoURL := info.HTMLURL
	if repoURL == "" {
		repoURL = "https://github.com/" + owner + "/" + repo
	}
	openIssues, err := json.Marshal(map[string]int64{"count": info.OpenIssueCount})
	if err != nil {
		return nil, fmt.Errorf("encode open issues payload: %w", err)
	}

	p := &Project{
		PublicID:         uuid.New(),
		Name:             name,
		Description:      description,
		IconURL:          info.OwnerAvatarURL,
		BannerURL:        in.BannerURL,
		RepoURL:          repoURL,
		RepoSlug:         owner + "/" + repo,
		GroupTag:         in.GroupTag,
		ContributionTags: in.ContributionTags,
		Languages:        JoinLanguages(langs),
		PaidBounty:       in.PaidBounty,
		OpenIssues:       openIssues,
		StargazersCount:  info.StargazersCount,
	}
	created, err := s.store.CreateProjectWithLink(ctx, p, userID, RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("create project %s/%s: %w", owner, repo, err)
	}
	slog.InfoContext(
		ctx,
		"Created project",
		"public_id",
		created.PublicID,
		"repo_slug",
		created.RepoSlug,
		"stargazers",
		created.StargazersCount,
	)
	return created, nil
}

// GetProject returns the project with the given public id, or nil when it
// does not exist.
func (s *Service) GetProject(ctx context.Context, publicID uuid.UUID) (*Project, error) {
	p, err := s.store.GetProjectByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", publicID, err)
	}
	return p, nil
}

// UpdateProject applies the update to the named project on behalf of the
// user. It returns ErrUnauthorized when the user holds no link, and
// (nil, nil) when the project does not exist.
func (s *Service) UpdateProject(
	ctx context.Context,
	userID uuid.UUID,
	publicID uuid.UUID,
	upd ProjectUpdate,
) (*Project, error) {
	p, err := s.store.GetProjectByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", publicID, err)
	}
	if p == nil {
		return nil, nil
	}
	ok, err := s.authz.Authorize(ctx, userID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("authorize user %s for project %s: %w", userID, publicID, err)
	}
	if !ok {
		slog.WarnContext(ctx, "Edit denied", "user_id", userID, "public_id", publicID)
		return nil, ErrUnauthorized
	}
	upd.apply(p)
	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", publicID, err)
	}
	return updated, nil
}

// DeleteProject removes the named project on behalf of the user, subject
// to the same link authorization as edits. Deleting a project that does
// not exist is a no-op.
func (s *Service) DeleteProject(ctx context.Context, userID, publicID uuid.UUID) error {
	p, err := s.store.GetProjectByPublicID(ctx, publicID)
	if err != nil {
		return fmt.Errorf("get project %s: %w", publicID, err)
	}
	if p == nil {
		return nil
	}
	ok, err := s.authz.Authorize(ctx, userID, p.ID)
	if err != nil {
		return fmt.Errorf("authorize user %s for project %s: %w", userID, publicID, err)
	}
	if !ok {
		slog.WarnContext(ctx, "Delete denied", "user_id", userID, "public_id", publicID)
		return ErrUnauthorized
	}
	if err := s.store.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("delete project %s: %w", publicID, err)
	}
	return nil
}

// JoinLanguages flattens a language breakdown into the comma-joined list
// stored on the project, most prominent language first.
func JoinLanguages(langs map[string]int) string {
	if len(langs) == 0 {
		return ""
	}
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return strings.Join(names, ",")
}
