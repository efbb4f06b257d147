package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/extvars/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendJournal appends entries to the journal of project. The project row
// is created if missing. Duplicate seqs are ignored.
func (s *Store) AppendJournal(ctx context.Context, project string, entries ...ir.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		emptyDigest, err := ir.RegistryDigest(ir.Registry{})
		if err != nil {
			return err
		}
		var lastSeq int64
		for _, e := range entries {
			lastSeq = max(lastSeq, e.Seq)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO projects (key, digest, updated_seq)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				updated_seq = MAX(projects.updated_seq, excluded.updated_seq)
		`, project, emptyDigest, lastSeq)
		if err != nil {
			return fmt.Errorf("touch project %q: %w", project, err)
		}
		return appendJournal(ctx, tx, project, entries)
	})
}

func appendJournal(ctx context.Context, db execer, project string, entries []ir.JournalEntry) error {
	for _, e := range entries {
		_, err := db.ExecContext(ctx, `
			INSERT INTO journal (project_key, seq, session, op, var_id, name, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project_key, seq) DO NOTHING
		`, project, e.Seq, e.Session, e.Op, string(e.VarID), e.Name, string(e.Category))
		if err != nil {
			return fmt.Errorf("append journal seq %d: %w", e.Seq, err)
		}
	}
	return nil
}

// ReadJournal returns the journal of project in seq order.
// Returns an empty slice (not nil) when there are no entries.
func (s *Store) ReadJournal(ctx context.Context, project string) ([]ir.JournalEntry, error) {
	return s.queryJournal(ctx, `
		SELECT seq, session, op, var_id, name, category
		FROM journal
		WHERE project_key = ?
		ORDER BY seq ASC
	`, project)
}

// ReadVariableJournal returns the journal entries of one variable in seq order.
func (s *Store) ReadVariableJournal(ctx context.Context, project string, id ir.VarID) ([]ir.JournalEntry, error) {
	return s.queryJournal(ctx, `
		SELECT seq, session, op, var_id, name, category
		FROM journal
		WHERE project_key = ? AND var_id = ?
		ORDER BY seq ASC
	`, project, string(id))
}

func (s *Store) queryJournal(ctx context.Context, query string, args ...any) ([]ir.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []ir.JournalEntry{}
	for rows.Next() {
		var e ir.JournalEntry
		if err := rows.Scan(&e.Seq, &e.Session, &e.Op, &e.VarID, &e.Name, &e.Category); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// LastSeq returns the highest journal seq stored for project, or 0.
func (s *Store) LastSeq(ctx context.Context, project string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal WHERE project_key = ?`, project).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
