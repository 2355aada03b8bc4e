package directory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store honoring the filter procedure's contract:
// combined filtering, seeded or newest-first ordering, pagination, and a
// total count independent of the page requested.
type fakeStore struct {
	projects []*Project
	links    []*ProjectLink
	nextID   uint64

	failFilter  bool
	failLink    bool
	createCalls int
}

func newFakeStore(projects ...*Project) *fakeStore {
	fs := &fakeStore{}
	for _, p := range projects {
		fs.insert(p)
	}
	return fs
}

func (fs *fakeStore) insert(p *Project) *Project {
	fs.nextID++
	cp := *p
	cp.ID = fs.nextID
	if cp.PublicID == (uuid.UUID{}) {
		cp.PublicID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Unix(int64(1700000000+fs.nextID*3600), 0)
	}
	cp.UpdatedAt = cp.CreatedAt
	fs.projects = append(fs.projects, &cp)
	return &cp
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchesFilter(p *Project, f Filter) bool {
	if f.Group != "" && !containsFold(p.GroupTag, f.Group) {
		return false
	}
	if f.Contribution != "" && !containsFold(p.ContributionTags, f.Contribution) {
		return false
	}
	if f.Query != "" && !(containsFold(p.Name, f.Query) || containsFold(p.Description, f.Query)) {
		return false
	}
	if f.MinStars != nil && p.StargazersCount < *f.MinStars {
		return false
	}
	if f.MaxStars != nil && p.StargazersCount > *f.MaxStars {
		return false
	}
	if f.Language != "" && !containsFold(p.Languages, f.Language) {
		return false
	}
	return true
}

func seedKey(seed string, id uint64) string {
	sum := md5.Sum([]byte(seed + strconv.FormatUint(id, 10)))
	return hex.EncodeToString(sum[:])
}

func (fs *fakeStore) FilterProjects(ctx context.Context, f Filter) ([]*Project, int64, error) {
	if fs.failFilter {
		return nil, 0, errors.New("datastore unavailable")
	}
	var all []*Project
	for _, p := range fs.projects {
		if matchesFilter(p, f) {
			all = append(all, p)
		}
	}
	if f.Seed != "" {
		sort.Slice(all, func(i, j int) bool {
			return seedKey(f.Seed, all[i].ID) < seedKey(f.Seed, all[j].ID)
		})
	} else {
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID > all[j].ID
		})
	}
	total := int64(len(all))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (fs *fakeStore) GetProjectByPublicID(ctx context.Context, publicID uuid.UUID) (*Project, error) {
	for _, p := range fs.projects {
		if p.PublicID == publicID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (fs *fakeStore) CreateProjectWithLink(
	ctx context.Context,
	p *Project,
	userID uuid.UUID,
	role int32,
) (*Project, error) {
	fs.createCalls++
	if fs.failLink {
		// Transactional contract: a failed link grant rolls the insert back.
		return nil, errors.New("insert project link failed")
	}
	created := fs.insert(p)
	fs.links = append(fs.links, &ProjectLink{
		ID:        uint64(len(fs.links) + 1),
		UserID:    userID,
		ProjectID: created.ID,
		Role:      role,
		GrantedAt: time.Now(),
	})
	cp := *created
	return &cp, nil
}

func (fs *fakeStore) UpdateProject(ctx context.Context, p *Project) (*Project, error) {
	for i, existing := range fs.projects {
		if existing.ID == p.ID {
			cp := *p
			cp.PublicID = existing.PublicID
			cp.CreatedAt = existing.CreatedAt
			cp.UpdatedAt = time.Now()
			fs.projects[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, nil
}

func (fs *fakeStore) DeleteProject(ctx context.Context, id uint64) error {
	for i, p := range fs.projects {
		if p.ID == id {
			fs.projects = append(fs.projects[:i], fs.projects[i+1:]...)
			return nil
		}
	}
	return nil
}

func (fs *fakeStore) HasProjectLink(ctx context.Context, userID uuid.UUID, projectID uint64) (bool, error) {
	for _, l := range fs.links {
		if l.UserID == userID && l.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

func (fs *fakeStore) Ping(ctx context.Context) error { return nil }
