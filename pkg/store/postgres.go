package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore persists drafts and revisions to PostgreSQL via
// database/sql, grounded directly on hubenschmidt-asr-llm-tts's
// internal/trace/store.go.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and applies any pending embedded
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err := row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, err := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if err != nil {
			return fmt.Errorf("read migration %d: %w", i, err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, i); err != nil {
			return fmt.Errorf("migration %d record: %w", i, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Put(ctx context.Context, d DraftRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (draft_id, timestamp, start_text, end_text, full_text, classname, directory_path, parent_draft_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (draft_id) DO UPDATE SET
			end_text = EXCLUDED.end_text,
			full_text = EXCLUDED.full_text,
			directory_path = EXCLUDED.directory_path`,
		d.DraftID, d.Timestamp, d.StartText, d.EndText, d.FullText, d.ClassName, d.DirectoryPath, d.ParentDraftID, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: put draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, draftID string) (DraftRecord, error) {
	d, err := s.scanDraft(s.db.QueryRowContext(ctx, `
		SELECT draft_id, timestamp, start_text, end_text, full_text, classname, directory_path, parent_draft_id, created_at
		FROM drafts WHERE draft_id = $1`, draftID))
	if errors.Is(err, sql.ErrNoRows) {
		return DraftRecord{}, ErrNotFound
	}
	if err != nil {
		return DraftRecord{}, fmt.Errorf("store: get draft: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) GetWithFamily(ctx context.Context, draftID string) (DraftRecord, *DraftRecord, []DraftRecord, error) {
	d, err := s.Get(ctx, draftID)
	if err != nil {
		return DraftRecord{}, nil, nil, err
	}

	var parent *DraftRecord
	if d.ParentDraftID != nil {
		p, err := s.Get(ctx, *d.ParentDraftID)
		if err == nil {
			parent = &p
		} else if !errors.Is(err, ErrNotFound) {
			return DraftRecord{}, nil, nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT draft_id, timestamp, start_text, end_text, full_text, classname, directory_path, parent_draft_id, created_at
		FROM drafts WHERE parent_draft_id = $1 ORDER BY timestamp ASC`, draftID)
	if err != nil {
		return DraftRecord{}, nil, nil, fmt.Errorf("store: list children: %w", err)
	}
	defer rows.Close()

	var children []DraftRecord
	for rows.Next() {
		c, err := s.scanDraftRows(rows)
		if err != nil {
			return DraftRecord{}, nil, nil, err
		}
		children = append(children, c)
	}
	return d, parent, children, rows.Err()
}

func (s *PostgresStore) ListPaginated(ctx context.Context, p ListParams) (ListResult, error) {
	order := "ASC"
	if p.Order == "desc" {
		order = "DESC"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 1000
	}

	var total int
	var err error
	if p.Since != nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts WHERE timestamp >= $1`, *p.Since).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&total)
	}
	if err != nil {
		return ListResult{}, fmt.Errorf("store: count drafts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT draft_id, timestamp, start_text, end_text, full_text, classname, directory_path, parent_draft_id, created_at
		FROM drafts %s ORDER BY timestamp %s LIMIT $1 OFFSET $2`,
		sinceClause(p.Since), order)

	var rows *sql.Rows
	if p.Since != nil {
		rows, err = s.db.QueryContext(ctx, query, limit, p.Offset, *p.Since)
	} else {
		rows, err = s.db.QueryContext(ctx, query, limit, p.Offset)
	}
	if err != nil {
		return ListResult{}, fmt.Errorf("store: list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []DraftRecord
	for rows.Next() {
		d, err := s.scanDraftRows(rows)
		if err != nil {
			return ListResult{}, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Drafts:  drafts,
		Total:   total,
		Limit:   limit,
		Offset:  p.Offset,
		HasMore: p.Offset+len(drafts) < total,
	}, nil
}

func sinceClause(since *float64) string {
	if since != nil {
		return "WHERE timestamp >= $3"
	}
	return ""
}

func (s *PostgresStore) ListSince(ctx context.Context, since float64) ([]DraftRecord, error) {
	res, err := s.ListPaginated(ctx, ListParams{Since: &since, Order: "asc", Limit: 1000})
	if err != nil {
		return nil, err
	}
	return res.Drafts, nil
}

func (s *PostgresStore) PutRevision(ctx context.Context, r RevisionRecord) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM drafts WHERE draft_id = $1)`, r.OriginalDraftID).Scan(&exists); err != nil {
		return fmt.Errorf("store: check draft exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO draft_revisions (revision_id, original_draft_id, revised_draft_json, model, source, source_uri, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.RevisionID, r.OriginalDraftID, r.RevisedDraft, r.Model, r.Source, r.SourceURI, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: put revision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, draftID string) ([]RevisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT revision_id, original_draft_id, revised_draft_json, model, source, source_uri, created_at
		FROM draft_revisions WHERE original_draft_id = $1 ORDER BY created_at ASC`, draftID)
	if err != nil {
		return nil, fmt.Errorf("store: list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []RevisionRecord
	for rows.Next() {
		var r RevisionRecord
		if err := rows.Scan(&r.RevisionID, &r.OriginalDraftID, &r.RevisedDraft, &r.Model, &r.Source, &r.SourceURI, &r.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanDraft(row rowScanner) (DraftRecord, error) {
	var d DraftRecord
	err := row.Scan(&d.DraftID, &d.Timestamp, &d.StartText, &d.EndText, &d.FullText, &d.ClassName, &d.DirectoryPath, &d.ParentDraftID, &d.CreatedAt)
	return d, err
}

func (s *PostgresStore) scanDraftRows(rows *sql.Rows) (DraftRecord, error) {
	return s.scanDraft(rows)
}
