// Package store persists amalgamation graphs to sqlite so external tooling
// can query symbols and dependencies without re-scanning.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"amalgam/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	file_path TEXT NOT NULL DEFAULT '',
	line      INTEGER NOT NULL DEFAULT 0,
	col       INTEGER NOT NULL DEFAULT 0,
	signature TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);

CREATE TABLE IF NOT EXISTS edges (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	relation  TEXT NOT NULL,
	PRIMARY KEY (source_id, target_id, relation)
);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
`

// Store wraps a sqlite database holding nodes and edges.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening index db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BulkUpsertNodes writes nodes in one transaction.
func (s *Store) BulkUpsertNodes(ctx context.Context, nodes []graph.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, name, kind, file_path, line, col, signature)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, kind = excluded.kind,
			file_path = excluded.file_path, line = excluded.line,
			col = excluded.col, signature = excluded.signature`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.Kind, n.FilePath, n.Line, n.Col, n.Signature); err != nil {
			return fmt.Errorf("upserting node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// BulkUpsertEdges writes edges in one transaction.
func (s *Store) BulkUpsertEdges(ctx context.Context, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (source_id, target_id, relation)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id, target_id, relation) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.SourceID, e.TargetID, e.Relation); err != nil {
			return fmt.Errorf("upserting edge %s -> %s: %w", e.SourceID, e.TargetID, err)
		}
	}
	return tx.Commit()
}

// PruneStaleFiles removes nodes (and their edges) whose files are no longer
// part of the scan. Nodes without a file, such as referenced-but-undefined
// types, are kept.
func (s *Store) PruneStaleFiles(ctx context.Context, validFiles []string) error {
	if len(validFiles) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(validFiles))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(validFiles))
	for i, f := range validFiles {
		args[i] = f
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := fmt.Sprintf(`DELETE FROM edges WHERE source_id IN
			(SELECT id FROM nodes WHERE file_path != '' AND file_path NOT IN (%s))
		OR target_id IN
			(SELECT id FROM nodes WHERE file_path != '' AND file_path NOT IN (%s))`,
		placeholders, placeholders)
	if _, err := tx.ExecContext(ctx, q, append(append([]any{}, args...), args...)...); err != nil {
		return err
	}

	q = fmt.Sprintf(`DELETE FROM nodes WHERE file_path != '' AND file_path NOT IN (%s)`, placeholders)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSymbolsInFile returns nodes declared in the given file, in source order.
func (s *Store) GetSymbolsInFile(ctx context.Context, filePath string) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, file_path, line, col, signature
		FROM nodes WHERE file_path = ? ORDER BY line, col`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindDependents returns nodes that depend on any node with the given
// display name.
func (s *Store) FindDependents(ctx context.Context, symbolName string) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT n.id, n.name, n.kind, n.file_path, n.line, n.col, n.signature
		FROM nodes n
		JOIN edges e ON n.id = e.target_id
		JOIN nodes src ON src.id = e.source_id
		WHERE src.name = ?
		ORDER BY n.file_path, n.line`, symbolName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	var out []*graph.Node
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Kind, &n.FilePath, &n.Line, &n.Col, &n.Signature); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
