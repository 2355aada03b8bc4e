package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contribdir.dev/internal/directory"
	"contribdir.dev/internal/directory/github"
)

type memStore struct {
	projects []*directory.Project
	links    map[uuid.UUID][]uint64
	nextID   uint64

	filterErr error
	pingErr   error
}

func newMemStore() *memStore {
	return &memStore{links: map[uuid.UUID][]uint64{}}
}

func (s *memStore) FilterProjects(ctx context.Context, f directory.Filter) ([]*directory.Project, int64, error) {
	if s.filterErr != nil {
		return nil, 0, s.filterErr
	}
	total := int64(len(s.projects))
	start := f.Offset()
	if start > len(s.projects) {
		start = len(s.projects)
	}
	end := start + f.PageSize
	if end > len(s.projects) {
		end = len(s.projects)
	}
	return s.projects[start:end], total, nil
}

func (s *memStore) GetProjectByPublicID(ctx context.Context, publicID uuid.UUID) (*directory.Project, error) {
	for _, p := range s.projects {
		if p.PublicID == publicID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateProjectWithLink(
	ctx context.Context,
	p *directory.Project,
	userID uuid.UUID,
	role int32,
) (*directory.Project, error) {
	s.nextID++
	cp := *p
	cp.ID = s.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.projects = append(s.projects, &cp)
	s.links[userID] = append(s.links[userID], cp.ID)
	out := cp
	return &out, nil
}

func (s *memStore) UpdateProject(ctx context.Context, p *directory.Project) (*directory.Project, error) {
	for i, existing := range s.projects {
		if existing.ID == p.ID {
			cp := *p
			s.projects[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) DeleteProject(ctx context.Context, id uint64) error {
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) HasProjectLink(ctx context.Context, userID uuid.UUID, projectID uint64) (bool, error) {
	for _, id := range s.links[userID] {
		if id == projectID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Ping(ctx context.Context) error { return s.pingErr }

type staticMetadata struct {
	info  *github.RepoInfo
	langs map[string]int
	err   error
}

func (m *staticMetadata) GetRepoInfo(ctx context.Context, owner, repo string) (*github.RepoInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

func (m *staticMetadata) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.langs, nil
}

func newTestServer(t *testing.T, store directory.Store, md directory.MetadataClient) *httptest.Server {
	t.Helper()
	if md == nil {
		md = &staticMetadata{
			info:  &github.RepoInfo{Description: "test repo", StargazersCount: 42},
			langs: map[string]int{"Go": 100},
		}
	}
	cs := directory.NewClientSet(store, directory.WithMetadataClient(md))
	srv := httptest.NewServer(NewHandler(cs).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])

	store.pingErr = errors.New("down")
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearchProjectsEnvelope(t *testing.T) {
	store := newMemStore()
	for _, name := range []string{"alpha", "bravo", "charlie"} {
		_, err := store.CreateProjectWithLink(context.Background(), &directory.Project{
			PublicID: uuid.New(),
			Name:     name,
		}, uuid.New(), directory.RoleOwner)
		require.NoError(t, err)
	}
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/projects/?page=1&page_size=2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[directory.SearchResult](t, resp)
	assert.Len(t, result.Projects, 2)
	assert.Equal(t, int64(3), result.TotalCount)
}

func TestSearchProjectsFailSoftEnvelope(t *testing.T) {
	store := newMemStore()
	store.filterErr = errors.New("datastore unavailable")
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/projects/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "search degrades to empty, never errors")
	result := decodeBody[directory.SearchResult](t, resp)
	assert.Empty(t, result.Projects)
	assert.Zero(t, result.TotalCount)
}

func TestSearchProjectsRejectsBadParams(t *testing.T) {
	srv := newTestServer(t, newMemStore(), nil)

	for _, qs := range []string{"page=one", "page_size=x", "min_stars=many", "max_stars=1e3"} {
		resp, err := http.Get(srv.URL + "/api/v1/projects/?" + qs)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equalf(t, http.StatusBadRequest, resp.StatusCode, "query %q", qs)
	}
}

func TestCreateProjectRequiresCaller(t *testing.T) {
	srv := newTestServer(t, newMemStore(), nil)

	resp, err := http.Post(
		srv.URL+"/api/v1/projects/",
		"application/json",
		strings.NewReader(`{"repo_slug":"acme/widget"}`),
	)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProject(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, nil)
	userID := uuid.New()

	req, err := http.NewRequest(
		http.MethodPost,
		srv.URL+"/api/v1/projects/",
		strings.NewReader(`{"repo_slug":"acme/widget","group_tag":"beginner"}`),
	)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", userID.String())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[directory.Project](t, resp)
	assert.Equal(t, "widget", created.Name)
	assert.Equal(t, "acme/widget", created.RepoSlug)
	assert.Equal(t, int64(42), created.StargazersCount)
	require.Len(t, store.projects, 1)
	assert.Contains(t, store.links, userID)
}

func TestCreateProjectInvalidSlug(t *testing.T) {
	srv := newTestServer(t, newMemStore(), nil)

	req, err := http.NewRequest(
		http.MethodPost,
		srv.URL+"/api/v1/projects/",
		strings.NewReader(`{"repo_slug":"not-a-slug"}`),
	)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", uuid.NewString())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateProjectMetadataFailure(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, &staticMetadata{err: errors.New("api down")})

	req, err := http.NewRequest(
		http.MethodPost,
		srv.URL+"/api/v1/projects/",
		strings.NewReader(`{"repo_slug":"acme/widget"}`),
	)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", uuid.NewString())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, store.projects)
}

func TestGetProject(t *testing.T) {
	store := newMemStore()
	created, err := store.CreateProjectWithLink(context.Background(), &directory.Project{
		PublicID: uuid.New(),
		Name:     "alpha",
	}, uuid.New(), directory.RoleOwner)
	require.NoError(t, err)
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/projects/" + created.PublicID.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[directory.Project](t, resp)
	assert.Equal(t, created.PublicID, got.PublicID)

	resp, err = http.Get(srv.URL + "/api/v1/projects/" + uuid.NewString())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/projects/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProjectAuthorization(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	created, err := store.CreateProjectWithLink(context.Background(), &directory.Project{
		PublicID: uuid.New(),
		Name:     "alpha",
	}, owner, directory.RoleOwner)
	require.NoError(t, err)
	srv := newTestServer(t, store, nil)

	patch := func(userID uuid.UUID) *http.Response {
		req, err := http.NewRequest(
			http.MethodPatch,
			srv.URL+"/api/v1/projects/"+created.PublicID.String(),
			strings.NewReader(`{"name":"renamed"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-User-ID", userID.String())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	// A caller without a link sees the same response as for a missing
	// project.
	resp := patch(uuid.New())
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "alpha", store.projects[0].Name)

	resp = patch(owner)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[directory.Project](t, resp)
	assert.Equal(t, "renamed", updated.Name)
}

func TestDeleteProjectAuthorization(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	created, err := store.CreateProjectWithLink(context.Background(), &directory.Project{
		PublicID: uuid.New(),
		Name:     "alpha",
	}, owner, directory.RoleOwner)
	require.NoError(t, err)
	srv := newTestServer(t, store, nil)

	del := func(userID uuid.UUID) *http.Response {
		req, err := http.NewRequest(
			http.MethodDelete,
			srv.URL+"/api/v1/projects/"+created.PublicID.String(),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-User-ID", userID.String())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := del(uuid.New())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Len(t, store.projects, 1)

	resp = del(owner)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, store.projects)
}
