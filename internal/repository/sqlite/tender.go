package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/repository"
)

// Compile-time check that *DB implements repository.TenderRepository.
var _ repository.TenderRepository = (*DB)(nil)

const tenderColumns = `id, code, title, description, deadline, ai_summary, ai_score, status, created_at`

// Upsert inserts a tender, or refreshes the AI annotations of an existing one.
//
// SINGLE-STATEMENT UPSERT:
// ON CONFLICT(code) DO UPDATE makes the insert-or-update atomic inside
// SQLite. The alternative — SELECT, then INSERT or UPDATE — has a window
// where two concurrent ingestions of the same code interleave and one of
// them errors or half-applies. Concurrency correctness belongs to the
// store's conflict resolution, not to application locking.
//
// Only ai_summary and ai_score come from the excluded (incoming) row on
// conflict. Title, description, deadline, status and created_at keep their
// original values — the pipeline re-scores tenders far more often than the
// source text changes, and first-seen metadata is the record of truth.
func (db *DB) Upsert(ctx context.Context, tender *model.Tender) (*model.Tender, error) {
	tender.CreatedAt = time.Now().UTC()
	if tender.Status == "" {
		tender.Status = "new"
	}

	var deadline sql.NullTime
	if tender.Deadline != nil {
		deadline = sql.NullTime{Time: *tender.Deadline, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tenders (code, title, description, deadline, ai_summary, ai_score, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		 	ai_summary = excluded.ai_summary,
		 	ai_score   = excluded.ai_score`,
		tender.Code,
		tender.Title,
		tender.Description,
		deadline,
		tender.AISummary,
		tender.AIScore,
		tender.Status,
		tender.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting tender %s: %w", tender.Code, err)
	}

	// Read the row back so the caller gets the canonical record — on a
	// conflict the stored title/deadline/created_at differ from the input.
	return db.getByCode(ctx, tender.Code)
}

// List returns every tender, ordered by descending AI score with newest-first
// tiebreak. The trailing id sort makes ordering deterministic when both the
// score and the timestamp collide (easy to hit in a single ingestion batch).
func (db *DB) List(ctx context.Context) ([]model.Tender, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+tenderColumns+`
		 FROM tenders
		 ORDER BY ai_score DESC, created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tenders: %w", err)
	}
	defer rows.Close()

	tenders := make([]model.Tender, 0, 32)

	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tender row: %w", err)
		}
		tenders = append(tenders, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tenders: %w", err)
	}

	return tenders, nil
}

// getByCode fetches a single tender by its business key.
func (db *DB) getByCode(ctx context.Context, code string) (*model.Tender, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tenderColumns+` FROM tenders WHERE code = ?`, code)

	t, err := scanTender(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting tender %s: %w", code, err)
	}
	return t, nil
}

func scanTender(row scanner) (*model.Tender, error) {
	var (
		t        model.Tender
		deadline sql.NullTime
	)

	err := row.Scan(
		&t.ID,
		&t.Code,
		&t.Title,
		&t.Description,
		&deadline,
		&t.AISummary,
		&t.AIScore,
		&t.Status,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}

	return &t, nil
}
