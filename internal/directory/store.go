package directory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the record store consumed by the directory service. The pgx
// implementation lives in internal/database.
type Store interface {
	// FilterProjects is the store-side filter procedure: combined
	// filtering, ordering, pagination and counting in one round trip.
	// The returned count is the size of the full match set, independent
	// of pagination.
	FilterProjects(ctx context.Context, f Filter) ([]*Project, int64, error)

	GetProjectByPublicID(ctx context.Context, publicID uuid.UUID) (*Project, error)

	// CreateProjectWithLink inserts the project and grants the creator a
	// link in a single transaction; a link failure rolls the project back.
	CreateProjectWithLink(ctx context.Context, p *Project, userID uuid.UUID, role int32) (*Project, error)

	UpdateProject(ctx context.Context, p *Project) (*Project, error)
	DeleteProject(ctx context.Context, id uint64) error

	HasProjectLink(ctx context.Context, userID uuid.UUID, projectID uint64) (bool, error)

	Ping(ctx context.Context) error
}
