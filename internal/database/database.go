package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"contribdir.dev/internal/config"
	"contribdir.dev/internal/directory"
	dbpgx "contribdir.dev/internal/database/pgx"
)

// Database is the pgx-backed record store for projects and links.
type Database struct {
	pg *pgxpool.Pool
}

var _ directory.Store = (*Database)(nil)

// NewForConfig constructs a Database using the provided config.
// It initializes the pgx pool internally.
func NewForConfig(cfg *config.Config) (*Database, error) {
	pg, err := dbpgx.NewClientForConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(pg), nil
}

// NewClient constructs a Database using the provided pgx pool.
func NewClient(pg *pgxpool.Pool) *Database { return &Database{pg: pg} }

// Ping verifies the provided database connection is available
func (db *Database) Ping(ctx context.Context) error {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.Ping")
	defer span.End()
	if db.pg == nil {
		return fmt.Errorf("database connection not available")
	}
	return db.pg.Ping(ctx)
}

func (db *Database) Close() error {
	if db.pg == nil {
		return nil
	}
	db.pg.Close()
	return nil
}

// FilterProjects executes the combined filter-count-paginate query. The
// total match count is replicated per row by a window function; it is read
// off the first row and is independent of the page requested.
func (db *Database) FilterProjects(
	ctx context.Context,
	f directory.Filter,
) ([]*directory.Project, int64, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.FilterProjects")
	span.SetAttributes(
		attribute.Int("page", f.Page),
		attribute.Int("page_size", f.PageSize),
		attribute.Bool("seeded", f.Seed != ""),
	)
	defer span.End()
	if db.pg == nil {
		return nil, 0, fmt.Errorf("database connection not available")
	}
	query, args, err := RenderFilterProjectsQuery(FilterProjectsArgs{
		Group:         f.Group,
		Contributions: f.Contribution,
		Query:         f.Query,
		Language:      f.Language,
		MinStars:      f.MinStars,
		MaxStars:      f.MaxStars,
		Seed:          f.Seed,
		Limit:         f.PageSize,
		Offset:        f.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}
	slog.DebugContext(ctx, "filter projects query", "sql", query, "args_len", len(args))
	rows, err := db.pg.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("filter projects query failed: %w", err)
	}
	defer rows.Close()
	var out []*directory.Project
	var total int64
	for rows.Next() {
		var p directory.Project
		if err := rows.Scan(
			&p.ID, &p.PublicID, &p.Name, &p.Description, &p.IconURL, &p.BannerURL,
			&p.RepoURL, &p.RepoSlug, &p.GroupTag, &p.ContributionTags, &p.Languages,
			&p.PaidBounty, &p.OpenIssues, &p.StargazersCount, &p.CreatedAt, &p.UpdatedAt,
			&total,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, 0, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	slog.DebugContext(ctx, "filter projects results", "count", len(out), "total", total)
	return out, total, nil
}

// GetProjectByPublicID retrieves a project by its public identifier,
// returning nil when no row matches.
func (db *Database) GetProjectByPublicID(
	ctx context.Context,
	publicID uuid.UUID,
) (*directory.Project, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.GetProjectByPublicID")
	span.SetAttributes(attribute.String("public_id", publicID.String()))
	defer span.End()
	if db.pg == nil {
		return nil, fmt.Errorf("database connection not available")
	}
	var p directory.Project
	err := db.pg.QueryRow(ctx, GetProjectByPublicIDQuery, publicID).Scan(
		&p.ID, &p.PublicID, &p.Name, &p.Description, &p.IconURL, &p.BannerURL,
		&p.RepoURL, &p.RepoSlug, &p.GroupTag, &p.ContributionTags, &p.Languages,
		&p.PaidBounty, &p.OpenIssues, &p.StargazersCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query project failed: %w", err)
	}
	return &p, nil
}

// CreateProjectWithLink inserts the project and grants the creating user a
// link in one transaction, so a link failure never leaves an orphan
// project row behind.
func (db *Database) CreateProjectWithLink(
	ctx context.Context,
	p *directory.Project,
	userID uuid.UUID,
	role int32,
) (*directory.Project, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.CreateProjectWithLink")
	span.SetAttributes(
		attribute.String("repo_slug", p.RepoSlug),
		attribute.String("user_id", userID.String()),
	)
	defer span.End()
	if db.pg == nil {
		return nil, fmt.Errorf("database connection not available")
	}
	tx, err := db.pg.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction failed: %w", err)
	}
	defer tx.Rollback(ctx)

	created := *p
	err = tx.QueryRow(ctx, InsertProjectQuery,
		p.PublicID, p.Name, p.Description, p.IconURL, p.BannerURL, p.RepoURL, p.RepoSlug,
		p.GroupTag, p.ContributionTags, p.Languages, p.PaidBounty, p.OpenIssues, p.StargazersCount,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert project failed: %w", err)
	}

	var link directory.ProjectLink
	err = tx.QueryRow(ctx, InsertProjectLinkQuery, userID, created.ID, role).
		Scan(&link.ID, &link.GrantedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert project link failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction failed: %w", err)
	}
	slog.DebugContext(
		ctx,
		"created project with link",
		"project_id",
		created.ID,
		"user_id",
		userID,
		"role",
		role,
	)
	return &created, nil
}

// UpdateProject writes the project's mutable fields back to the store.
// The public identifier is never part of the update.
func (db *Database) UpdateProject(
	ctx context.Context,
	p *directory.Project,
) (*directory.Project, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.UpdateProject")
	span.SetAttributes(attribute.Int("project_id", int(p.ID)))
	defer span.End()
	if db.pg == nil {
		return nil, fmt.Errorf("database connection not available")
	}
	var out directory.Project
	err := db.pg.QueryRow(ctx, UpdateProjectQuery,
		p.ID, p.Name, p.Description, p.IconURL, p.BannerURL,
		p.GroupTag, p.ContributionTags, p.Languages, p.PaidBounty,
		p.OpenIssues, p.StargazersCount,
	).Scan(
		&out.ID, &out.PublicID, &out.Name, &out.Description, &out.IconURL, &out.BannerURL,
		&out.RepoURL, &out.RepoSlug, &out.GroupTag, &out.ContributionTags, &out.Languages,
		&out.PaidBounty, &out.OpenIssues, &out.StargazersCount, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("update project failed: %w", err)
	}
	return &out, nil
}

// DeleteProject removes a project row; its links go with it (cascade).
func (db *Database) DeleteProject(ctx context.Context, id uint64) error {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.DeleteProject")
	span.SetAttributes(attribute.Int("project_id", int(id)))
	defer span.End()
	if db.pg == nil {
		return fmt.Errorf("database connection not available")
	}
	if _, err := db.pg.Exec(ctx, DeleteProjectQuery, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete project failed: %w", err)
	}
	return nil
}

// HasProjectLink reports whether the user holds a link to the project.
func (db *Database) HasProjectLink(
	ctx context.Context,
	userID uuid.UUID,
	projectID uint64,
) (bool, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.HasProjectLink")
	span.SetAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("project_id", int(projectID)),
	)
	defer span.End()
	if db.pg == nil {
		return false, fmt.Errorf("database connection not available")
	}
	var ok bool
	if err := db.pg.QueryRow(ctx, HasProjectLinkQuery, userID, projectID).Scan(&ok); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("query project link failed: %w", err)
	}
	return ok, nil
}

// CountProjects returns the total number of stored projects.
func (db *Database) CountProjects(ctx context.Context) (int64, error) {
	tracer := otel.Tracer("contribdir/database")
	ctx, span := tracer.Start(ctx, "Database.CountProjects")
	defer span.End()
	if db.pg == nil {
		return 0, fmt.Errorf("database connection not available")
	}
	var n int64
	if err := db.pg.QueryRow(ctx, CountProjectsQuery).Scan(&n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("count projects failed: %w", err)
	}
	return n, nil
}
