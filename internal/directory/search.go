package directory

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SearchProjects runs the multi-criteria project search. It normalizes the
// filter, delegates the combined filter-count-paginate operation to the
// store's single-query procedure and unwraps the result envelope.
//
// The operation is fail-soft: a store failure is logged and degrades to an
// empty page with a zero total rather than an error, so a transient backend
// outage renders as "no results".
func (s *Service) SearchProjects(ctx context.Context, f Filter) *SearchResult {
	tracer := otel.Tracer("contribdir/directory")
	ctx, span := tracer.Start(ctx, "Service.SearchProjects")
	defer span.End()

	f = f.Normalize(s.defaultPageSize, s.maxPageSize)
	span.SetAttributes(
		attribute.Int("page", f.Page),
		attribute.Int("page_size", f.PageSize),
		attribute.Bool("seeded", f.Seed != ""),
	)

	projects, total, err := s.store.FilterProjects(ctx, f)
	if err != nil {
		slog.WarnContext(
			ctx,
			"Failed to filter projects from datastore",
			"group",
			f.Group,
			"contribution",
			f.Contribution,
			"page",
			f.Page,
			"error",
			err,
		)
		return &SearchResult{Projects: []*Project{}}
	}
	if projects == nil {
		projects = []*Project{}
	}
	slog.DebugContext(
		ctx,
		"Filtered projects",
		"returned",
		len(projects),
		"total",
		total,
		"page",
		f.Page,
	)
	return &SearchResult{Projects: projects, TotalCount: total}
}
