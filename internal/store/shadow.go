package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/registry"
)

// Load returns the saved shadow registry for project.
// found is false when the project has never been saved. A saved project with
// no variables returns an empty, non-nil registry.
func (s *Store) Load(ctx context.Context, project string) (ir.Registry, bool, error) {
	var key string
	err := s.db.QueryRowContext(ctx, `SELECT key FROM projects WHERE key = ?`, project).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load project %q: %w", project, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category
		FROM shadow_variables
		WHERE project_key = ?
		ORDER BY category COLLATE BINARY ASC, position ASC
	`, project)
	if err != nil {
		return nil, false, fmt.Errorf("query shadow variables: %w", err)
	}
	defer rows.Close()

	reg := ir.Registry{}
	for rows.Next() {
		var rec ir.VariableRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category); err != nil {
			return nil, false, fmt.Errorf("scan shadow variable: %w", err)
		}
		reg[rec.Category] = append(reg[rec.Category], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate shadow variables: %w", err)
	}
	return reg, true, nil
}

// Save replaces the saved registry of project with reg and appends entries
// to its journal, in one transaction.
//
// Journal entries whose seq is already stored are ignored, so retrying a
// save is safe.
func (s *Store) Save(ctx context.Context, project string, reg ir.Registry, entries ...ir.JournalEntry) error {
	digest, err := ir.RegistryDigest(reg)
	if err != nil {
		return fmt.Errorf("save %q: %w", project, err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var lastSeq int64
		for _, e := range entries {
			lastSeq = max(lastSeq, e.Seq)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (key, digest, updated_seq, variables)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				digest = excluded.digest,
				updated_seq = MAX(projects.updated_seq, excluded.updated_seq),
				variables = excluded.variables
		`, project, digest, lastSeq, reg.Len())
		if err != nil {
			return fmt.Errorf("save project %q: %w", project, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM shadow_variables WHERE project_key = ?`, project); err != nil {
			return fmt.Errorf("clear shadow variables: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO shadow_variables (project_key, id, name, category, position)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare shadow insert: %w", err)
		}
		defer stmt.Close()

		for _, cat := range registry.OrderedCategories(reg) {
			for pos, rec := range reg[cat] {
				if _, err := stmt.ExecContext(ctx, project, string(rec.ID), rec.Name, string(cat), pos); err != nil {
					return fmt.Errorf("insert shadow variable %s: %w", rec.ID, err)
				}
			}
		}

		return appendJournal(ctx, tx, project, entries)
	})
}
