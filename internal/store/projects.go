package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Project summarizes one saved project.
type Project struct {
	Key        string `json:"key"`
	Digest     string `json:"digest"`
	UpdatedSeq int64  `json:"updated_seq"`
	Variables  int    `json:"variables"`
}

// Projects returns every saved project ordered by key.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, digest, updated_seq, variables
		FROM projects
		ORDER BY key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Key, &p.Digest, &p.UpdatedSeq, &p.Variables); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project summary.
func (s *Store) GetProject(ctx context.Context, key string) (Project, bool, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `
		SELECT key, digest, updated_seq, variables FROM projects WHERE key = ?
	`, key).Scan(&p.Key, &p.Digest, &p.UpdatedSeq, &p.Variables)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, fmt.Errorf("get project %q: %w", key, err)
	}
	return p, true, nil
}

// DeleteProject removes a project with its registry and journal.
// Deleting an unknown project is a no-op.
func (s *Store) DeleteProject(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete project %q: %w", key, err)
	}
	return nil
}
