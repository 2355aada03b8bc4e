package database

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// FilterProjectsArgs parametrizes the store-side filter procedure. Empty
// string criteria and nil bounds omit their clause entirely; a nil MaxStars
// is the representation of an unbounded upper bound.
type FilterProjectsArgs struct {
	Group         string
	Contributions string
	Query         string
	Language      string
	MinStars      *int64
	MaxStars      *int64
	Seed          string
	Limit         int
	Offset        int
}

const projectColumns = "p.id, p.public_id, p.name, p.description, p.icon_url, p.banner_url, " +
	"p.repo_url, p.repo_slug, p.group_tag, p.contribution_tags, p.languages, " +
	"p.paid_bounty, p.open_issues, p.stargazers_count, p.created_at, p.updated_at"

var InsertProjectQuery = strings.Join([]string{
	"INSERT INTO projects (public_id, name, description, icon_url, banner_url, repo_url, repo_slug,",
	"group_tag, contribution_tags, languages, paid_bounty, open_issues, stargazers_count)",
	"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
	"RETURNING id, created_at, updated_at",
}, " ")

var UpdateProjectQuery = strings.Join([]string{
	"UPDATE projects p SET name = $2, description = $3, icon_url = $4, banner_url = $5,",
	"group_tag = $6, contribution_tags = $7, languages = $8, paid_bounty = $9,",
	"open_issues = $10, stargazers_count = $11, updated_at = NOW()",
	"WHERE p.id = $1",
	"RETURNING " + projectColumns,
}, " ")

var GetProjectByPublicIDQuery = strings.Join([]string{
	"SELECT " + projectColumns,
	"FROM projects p",
	"WHERE p.public_id = $1",
}, " ")

var DeleteProjectQuery = "DELETE FROM projects WHERE id = $1"

var CountProjectsQuery = "SELECT COUNT(*) FROM projects"

var InsertProjectLinkQuery = strings.Join([]string{
	"INSERT INTO project_links (user_id, project_id, role)",
	"VALUES ($1, $2, $3)",
	"RETURNING id, created_at",
}, " ")

var HasProjectLinkQuery = strings.Join([]string{
	"SELECT EXISTS(SELECT 1 FROM project_links",
	"WHERE user_id = $1 AND project_id = $2)",
}, " ")

// The filter procedure: every clause is ANDed; the free-text clause matches
// name OR description; the per-row window count carries the size of the
// full match set so filter, count and pagination happen in one round trip.
// A seed keys a reproducible pseudo-random permutation, otherwise ordering
// is newest first.
var filterProjectsQueryTmpl = template.Must(
	template.New("filterProjects").Parse(strings.Join([]string{
		"SELECT " + projectColumns + ", COUNT(*) OVER () AS total_count",
		"FROM projects p",
		"WHERE TRUE",
		"{{if .Group}}AND p.group_tag ILIKE {{.Group}} {{end}}",
		"{{if .Contributions}}AND p.contribution_tags ILIKE {{.Contributions}} {{end}}",
		"{{if .Query}}AND (p.name ILIKE {{.Query}} OR p.description ILIKE {{.Query}}) {{end}}",
		"{{if .MinStars}}AND p.stargazers_count >= {{.MinStars}} {{end}}",
		"{{if .MaxStars}}AND p.stargazers_count <= {{.MaxStars}} {{end}}",
		"{{if .Language}}AND p.languages ILIKE {{.Language}} {{end}}",
		"{{if .Seed}}ORDER BY md5({{.Seed}} || p.id::text){{else}}ORDER BY p.created_at DESC, p.id DESC{{end}}",
		"LIMIT {{.Limit}} OFFSET {{.Offset}}",
	}, " ")),
)

type filterProjectsPlaceholders struct {
	Group         string
	Contributions string
	Query         string
	MinStars      string
	MaxStars      string
	Language      string
	Seed          string
	Limit         string
	Offset        string
}

// RenderFilterProjectsArgs renders positional arguments and placeholders for the filter projects query
func RenderFilterProjectsArgs(a FilterProjectsArgs) ([]any, filterProjectsPlaceholders) {
	var p filterProjectsPlaceholders
	args := make([]any, 0, 9)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if a.Group != "" {
		p.Group = next("%" + a.Group + "%")
	}
	if a.Contributions != "" {
		p.Contributions = next("%" + a.Contributions + "%")
	}
	if a.Query != "" {
		p.Query = next("%" + a.Query + "%")
	}
	if a.MinStars != nil {
		p.MinStars = next(*a.MinStars)
	}
	if a.MaxStars != nil {
		p.MaxStars = next(*a.MaxStars)
	}
	if a.Language != "" {
		p.Language = next("%" + a.Language + "%")
	}
	if a.Seed != "" {
		p.Seed = next(a.Seed)
	}
	p.Limit = next(a.Limit)
	p.Offset = next(a.Offset)
	return args, p
}

// RenderFilterProjectsQuery builds SQL and args for the combined
// filter-count-paginate query.
func RenderFilterProjectsQuery(a FilterProjectsArgs) (string, []any, error) {
	args, placeholders := RenderFilterProjectsArgs(a)
	var buf bytes.Buffer
	if err := filterProjectsQueryTmpl.Execute(&buf, placeholders); err != nil {
		return "", nil, err
	}
	return buf.String(), args, nil
}
