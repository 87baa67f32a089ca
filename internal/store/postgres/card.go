package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/lanes/internal/domain"
)

type ListRepo struct {
	pool *pgxpool.Pool
}

func NewListRepo(pool *pgxpool.Pool) *ListRepo {
	return &ListRepo{pool: pool}
}

func (r *ListRepo) Create(ctx context.Context, l *domain.BoardList) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_lists (id, project_id, title, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.ProjectID, l.Title, l.Position, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("listRepo.Create: %w", err)
	}

	return nil
}

func (r *ListRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BoardList, error) {
	var l domain.BoardList

	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, title, position, created_at, updated_at
		 FROM board_lists WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.ProjectID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("listRepo.GetByID: %w", err)
	}

	return &l, nil
}

func (r *ListRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.BoardList, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, title, position, created_at, updated_at
		 FROM board_lists WHERE project_id = $1
		 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var lists []*domain.BoardList
	for rows.Next() {
		var l domain.BoardList
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("listRepo.ListByProject: scan: %w", err)
		}
		lists = append(lists, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listRepo.ListByProject: %w", err)
	}

	return lists, nil
}

func (r *ListRepo) Update(ctx context.Context, l *domain.BoardList) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE board_lists SET title = $2, position = $3, updated_at = now() WHERE id = $1`,
		l.ID, l.Title, l.Position,
	)
	if err != nil {
		return fmt.Errorf("listRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ListRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM board_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `id, project_id, list_id, title, description, position, labels, due_date, assigned_to, created_at, updated_at`

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cards (`+cardColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.ProjectID, c.ListID, c.Title, c.Description, c.Position,
		c.Labels, c.DueDate, c.AssignedTo, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.ProjectID, &c.ListID, &c.Title, &c.Description, &c.Position,
		&c.Labels, &c.DueDate, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *CardRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE list_id = $1 ORDER BY position`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByList: %w", err)
	}
	defer rows.Close()

	return scanCards(rows, "cardRepo.ListByList")
}

func (r *CardRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE project_id = $1 ORDER BY list_id, position
		 LIMIT 5000`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	return scanCards(rows, "cardRepo.ListByProject")
}

func scanCards(rows pgx.Rows, op string) ([]*domain.Card, error) {
	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		err := rows.Scan(
			&c.ID, &c.ProjectID, &c.ListID, &c.Title, &c.Description, &c.Position,
			&c.Labels, &c.DueDate, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cards, nil
}

func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET title = $2, description = $3, labels = $4, due_date = $5, assigned_to = $6, updated_at = now()
		 WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Labels, c.DueDate, c.AssignedTo,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// Move reassigns a card to a destination list at the given position,
// reindexing sibling positions transactionally. The destination list must
// belong to the card's project; the position is clamped to
// [0, sibling count].
func (r *CardRepo) Move(ctx context.Context, cardID, destListID uuid.UUID, position int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cardRepo.Move: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cardProject, listProject, sourceListID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT project_id, list_id FROM cards WHERE id = $1 FOR UPDATE`,
		cardID,
	).Scan(&cardProject, &sourceListID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("cardRepo.Move: card: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cardRepo.Move: %w", err)
	}

	err = tx.QueryRow(ctx,
		`SELECT project_id FROM board_lists WHERE id = $1`,
		destListID,
	).Scan(&listProject)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("cardRepo.Move: list: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cardRepo.Move: %w", err)
	}

	if cardProject != listProject {
		return fmt.Errorf("cardRepo.Move: card and list belong to different projects: %w", domain.ErrConflict)
	}

	var siblings int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM cards WHERE list_id = $1 AND id <> $2`,
		destListID, cardID,
	).Scan(&siblings)
	if err != nil {
		return fmt.Errorf("cardRepo.Move: %w", err)
	}

	// Clamp the position into [0, sibling count].
	if position < 0 {
		position = 0
	}
	if position > siblings {
		position = siblings
	}

	// Close the gap left in the source list.
	_, err = tx.Exec(ctx,
		`UPDATE cards SET position = position - 1
		 WHERE list_id = $1 AND position > (SELECT position FROM cards WHERE id = $2)`,
		sourceListID, cardID,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Move: reindex source: %w", err)
	}

	// Open a slot in the destination list.
	_, err = tx.Exec(ctx,
		`UPDATE cards SET position = position + 1
		 WHERE list_id = $1 AND id <> $2 AND position >= $3`,
		destListID, cardID, position,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Move: reindex destination: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE cards SET list_id = $2, position = $3, updated_at = now() WHERE id = $1`,
		cardID, destListID, position,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Move: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cardRepo.Move: commit: %w", err)
	}

	return nil
}

func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
