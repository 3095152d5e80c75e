// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// QueryOptions holds parameters for report searches.
type QueryOptions struct {
	// Query is the full-text search string. Empty lists the newest reports.
	Query string

	// Since keeps reports created at or after this RFC 3339 time.
	Since string

	// IncludeContent returns the Markdown body with each record.
	IncludeContent bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Search returns reports matching opts. Full-text results are ranked by
// relevance; listings are newest first.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]types.ReportRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	cols := `r.id, r.path, r.query, r.sub_queries, r.diversity, r.coverage, r.sources`
	if opts.IncludeContent {
		cols += `, r.content`
	}
	cols += `, r.created_at`

	var (
		qb   strings.Builder
		args []any
		q    = strings.TrimSpace(opts.Query)
	)

	switch {
	case q != "" && s.fts:
		qb.WriteString(`SELECT ` + cols + `
			FROM reports_fts
			JOIN reports r ON r.id = reports_fts.rowid
			WHERE reports_fts MATCH ?`)
		args = append(args, q)
	case q != "":
		qb.WriteString(`SELECT ` + cols + ` FROM reports r
			WHERE (r.query LIKE ? OR r.sub_queries LIKE ? OR r.content LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like, like)
	default:
		qb.WriteString(`SELECT ` + cols + ` FROM reports r WHERE 1=1`)
	}

	if opts.Since != "" {
		qb.WriteString(` AND r.created_at >= ?`)
		args = append(args, opts.Since)
	}

	if q != "" && s.fts {
		qb.WriteString(` ORDER BY reports_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.created_at DESC, r.id DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var out []types.ReportRecord
	for rows.Next() {
		rec, err := scanReport(rows.Scan, opts.IncludeContent)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
