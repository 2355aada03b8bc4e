package directory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Link roles. The creator of a project is granted RoleOwner; holding any
// link at all is what authorizes edits.
const (
	RoleContributor int32 = 1
	RoleOwner       int32 = 2
)

// Project represents a directory entry backed by a source repository.
// The internal ID is assigned by the store on insert and never reused;
// PublicID is the identifier exposed to clients and is immutable once set.
type Project struct {
	ID               uint64          `json:"-"`
	PublicID         uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	IconURL          string          `json:"icon_url"`
	BannerURL        string          `json:"banner_url"`
	RepoURL          string          `json:"repo_url"`
	RepoSlug         string          `json:"repo_slug"`
	GroupTag         string          `json:"group_tag"`
	ContributionTags string          `json:"contribution_tags"`
	Languages        string          `json:"languages"`
	PaidBounty       bool            `json:"paid_bounty"`
	OpenIssues       json.RawMessage `json:"open_issues"`
	StargazersCount  int64           `json:"stargazers_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProjectLink associates a user with a project and a numeric role,
// recording when it was granted. A link's existence is the sole
// authorization signal for mutating the linked project.
type ProjectLink struct {
	ID        uint64    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	ProjectID uint64    `json:"-"`
	Role      int32     `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}

// ProjectUpdate carries the mutable fields of a project; nil fields are
// left unchanged. PublicID and the repository slug are not updatable.
type ProjectUpdate struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	IconURL          *string `json:"icon_url"`
	BannerURL        *string `json:"banner_url"`
	GroupTag         *string `json:"group_tag"`
	ContributionTags *string `json:"contribution_tags"`
	Languages        *string `json:"languages"`
	PaidBounty       *bool   `json:"paid_bounty"`
}

func (u ProjectUpdate) apply(p *Project) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.IconURL != nil {
		p.IconURL = *u.IconURL
	}
	if u.BannerURL != nil {
		p.BannerURL = *u.BannerURL
	}
	if u.GroupTag != nil {
		p.GroupTag = *u.GroupTag
	}
	if u.ContributionTags != nil {
		p.ContributionTags = *u.ContributionTags
	}
	if u.Languages != nil {
		p.Languages = *u.Languages
	}
	if u.PaidBounty != nil {
		p.PaidBounty = *u.PaidBounty
	}
}

// SearchResult is the unwrapped envelope of the store's filter procedure:
// one page of matches plus the size of the full match set.
type SearchResult struct {
	Projects   []*Project `json:"projects"`
	TotalCount int64      `json:"total_count"`
}
