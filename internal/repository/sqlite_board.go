package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/elementalai/elemental/internal/board"
	"github.com/elementalai/elemental/internal/db"
	"github.com/elementalai/elemental/internal/domain"
)

// SQLiteBoardRepo stores a board as ordered strategy_items rows plus one
// board_state row carrying the revision and the pending gate.
type SQLiteBoardRepo struct {
	db  *sql.DB
	uow db.UnitOfWork
}

// NewSQLiteBoardRepo creates a new SQLiteBoardRepo.
func NewSQLiteBoardRepo(database *sql.DB, uow db.UnitOfWork) *SQLiteBoardRepo {
	return &SQLiteBoardRepo{db: database, uow: uow}
}

const itemColumns = `id, project_id, list_id, title, description, classification, completed,
	impact, growth_rate, confidence, created_at, updated_at`

// LoadBoard returns the stored board, or an empty one for a project that has
// never been saved.
func (r *SQLiteBoardRepo) LoadBoard(ctx context.Context, projectID string) (board.Snapshot, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&exists)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("checking project: %w", err)
	}
	if exists == 0 {
		return board.Snapshot{}, &domain.NotFoundError{Kind: "project", ID: projectID}
	}

	s := board.EmptySnapshot(projectID)
	err = r.db.QueryRowContext(ctx,
		`SELECT revision, pending_item_id FROM board_state WHERE project_id = ?`, projectID,
	).Scan(&s.Revision, &s.Pending)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return board.Snapshot{}, fmt.Errorf("loading board state: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM strategy_items WHERE project_id = ? ORDER BY list_id, position`, projectID)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("listing strategy items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, list, err := scanItem(rows)
		if err != nil {
			return board.Snapshot{}, err
		}
		s.Lists[list] = append(s.Lists[list], it)
	}
	if err := rows.Err(); err != nil {
		return board.Snapshot{}, fmt.Errorf("iterating strategy items: %w", err)
	}
	return s, nil
}

// SaveBoard replaces the stored board with s in one transaction. A snapshot
// older than the stored revision is ignored.
func (r *SQLiteBoardRepo) SaveBoard(ctx context.Context, s board.Snapshot) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var stored int64
		err := tx.QueryRowContext(ctx, `SELECT revision FROM board_state WHERE project_id = ?`, s.ProjectID).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("reading stored revision: %w", err)
		case stored > s.Revision:
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM strategy_items WHERE project_id = ?`, s.ProjectID); err != nil {
			return fmt.Errorf("clearing strategy items: %w", err)
		}

		insert := `INSERT INTO strategy_items (id, project_id, list_id, position, title, description,
			classification, completed, impact, growth_rate, confidence, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, l := range domain.Lists {
			for pos, it := range s.Lists[l] {
				_, err := tx.ExecContext(ctx, insert,
					it.ID,
					s.ProjectID,
					string(l),
					pos,
					it.Title,
					it.Description,
					string(it.Classification),
					boolToInt(it.Completed),
					string(it.Impact),
					nullableFloat(it.GrowthRate),
					nullableInt(it.Confidence),
					it.CreatedAt.UTC().Format(timestampLayout),
					it.UpdatedAt.UTC().Format(timestampLayout),
				)
				if err != nil {
					return fmt.Errorf("inserting strategy item %s: %w", it.ID, err)
				}
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO board_state (project_id, revision, pending_item_id, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(project_id) DO UPDATE SET
			   revision = excluded.revision,
			   pending_item_id = excluded.pending_item_id,
			   updated_at = excluded.updated_at`,
			s.ProjectID, s.Revision, s.Pending, nowUTC())
		if err != nil {
			return fmt.Errorf("writing board state: %w", err)
		}
		return nil
	})
}

func scanItem(rows *sql.Rows) (domain.StrategyItem, domain.ListID, error) {
	var it domain.StrategyItem
	var listStr, classStr, impactStr, createdAtStr, updatedAtStr string
	var completed int
	var growth sql.NullFloat64
	var confidence sql.NullInt64

	err := rows.Scan(
		&it.ID, &it.ProjectID, &listStr,
		&it.Title, &it.Description, &classStr, &completed,
		&impactStr, &growth, &confidence,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return it, "", fmt.Errorf("scanning strategy item: %w", err)
	}
	it.Classification = domain.Classification(classStr)
	it.Completed = completed != 0
	it.Impact = domain.Impact(impactStr)
	it.GrowthRate = floatPtr(growth)
	it.Confidence = intPtr(confidence)

	var parseErr error
	if it.CreatedAt, parseErr = time.Parse(timestampLayout, createdAtStr); parseErr != nil {
		return it, "", fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if it.UpdatedAt, parseErr = time.Parse(timestampLayout, updatedAtStr); parseErr != nil {
		return it, "", fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return it, domain.ListID(listStr), nil
}
