package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/refnet/fuserec/internal/paper"
)

// DB is a SQLite-backed Store.
type DB struct {
	db *sql.DB
}

const selectPaperFields = `id, title, abstract, venue, pub_year,
	citation_count, authors_json, references_json`

// Open opens or creates a SQLite corpus database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			venue TEXT,
			pub_year INTEGER NOT NULL,
			citation_count INTEGER NOT NULL DEFAULT 0,
			authors_json TEXT NOT NULL,
			references_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(pub_year);
	`
	_, err := db.Exec(schema)
	return err
}

// Populate clears the papers table and bulk-loads the given corpus.
// Artifact jobs are single-writer: Populate must not run concurrently
// with anything else on the same database.
func (d *DB) Populate(papers []*paper.Paper) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO papers (id, title, abstract, venue, pub_year,
			citation_count, authors_json, references_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, p := range papers {
		authorsJSON, err := json.Marshal(p.Authors)
		if err != nil {
			return 0, fmt.Errorf("encoding authors for %s: %w", p.ID, err)
		}
		refsJSON, err := json.Marshal(p.References)
		if err != nil {
			return 0, fmt.Errorf("encoding references for %s: %w", p.ID, err)
		}

		if _, err := stmt.Exec(p.ID, p.Title, p.Abstract, p.Venue, p.Year,
			p.CitationCount, string(authorsJSON), string(refsJSON)); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", p.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return count, nil
}

// FetchByIDs returns the papers matching the given ids. Ids that do
// not exist are simply absent from the result; the result order
// follows the database, not the input.
func (d *DB) FetchByIDs(ctx context.Context, ids []string) ([]paper.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM papers WHERE id IN (%s)", selectPaperFields, placeholders)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []paper.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}
	return papers, nil
}

// Count returns the number of stored papers.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

func scanPaper(rows *sql.Rows) (paper.Paper, error) {
	var p paper.Paper
	var authorsJSON, refsJSON string

	if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &p.Venue, &p.Year,
		&p.CitationCount, &authorsJSON, &refsJSON); err != nil {
		return paper.Paper{}, fmt.Errorf("scanning paper: %w", err)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
		return paper.Paper{}, fmt.Errorf("decoding authors for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(refsJSON), &p.References); err != nil {
		return paper.Paper{}, fmt.Errorf("decoding references for %s: %w", p.ID, err)
	}
	return p, nil
}
