// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ClaimTask inserts the first record of a task. It returns
// types.ErrTaskExists when the id is already journaled, which happens when
// trackers in different processes start tasks within the same second.
func (s *Store) ClaimTask(ctx context.Context, st types.TaskState) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, query, status, start_time, filepath, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		st.ID, st.Query, string(st.Status), st.StartTime, st.FilePath, st.Error,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("claiming task %s: %w", st.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claiming task %s: %w", st.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("claiming task %s: %w", st.ID, types.ErrTaskExists)
	}
	return nil
}

// RecordTask stores the latest state of a background task. It satisfies
// the task tracker's journal interface.
func (s *Store) RecordTask(ctx context.Context, st types.TaskState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, query, status, start_time, filepath, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, filepath=excluded.filepath,
			error=excluded.error, updated_at=excluded.updated_at`,
		st.ID, st.Query, string(st.Status), st.StartTime, st.FilePath, st.Error,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording task %s: %w", st.ID, err)
	}
	return nil
}

// Task returns the journaled state of id, or a not_found state.
func (s *Store) Task(ctx context.Context, id string) (types.TaskState, error) {
	var (
		st       types.TaskState
		status   string
		filePath sql.NullString
		errMsg   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, start_time, filepath, error FROM tasks WHERE id = ?`, id,
	).Scan(&st.ID, &st.Query, &status, &st.StartTime, &filePath, &errMsg)
	if err == sql.ErrNoRows {
		return types.TaskState{Status: types.TaskNotFound}, nil
	}
	if err != nil {
		return types.TaskState{}, fmt.Errorf("looking up task: %w", err)
	}
	st.Status = types.TaskStatus(status)
	st.FilePath = filePath.String
	st.Error = errMsg.String
	return st, nil
}

// Tasks lists journaled tasks, most recently started first.
func (s *Store) Tasks(ctx context.Context, limit int) ([]types.TaskSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, status, start_time FROM tasks ORDER BY start_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var out []types.TaskSummary
	for rows.Next() {
		var ts types.TaskSummary
		var status string
		if err := rows.Scan(&ts.ID, &ts.Query, &status, &ts.StartTime); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ts.Status = types.TaskStatus(status)
		out = append(out, ts)
	}
	return out, rows.Err()
}
