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

type ChecklistRepo struct {
	pool *pgxpool.Pool
}

func NewChecklistRepo(pool *pgxpool.Pool) *ChecklistRepo {
	return &ChecklistRepo{pool: pool}
}

func (r *ChecklistRepo) Create(ctx context.Context, c *domain.Checklist) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO checklists (id, card_id, title, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.CardID, c.Title, c.Position, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("checklistRepo.Create: %w", err)
	}

	return nil
}

func (r *ChecklistRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	var c domain.Checklist

	err := r.pool.QueryRow(ctx,
		`SELECT id, card_id, title, position, created_at, updated_at
		 FROM checklists WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CardID, &c.Title, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checklistRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checklistRepo.GetByID: %w", err)
	}

	items, err := r.listItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items

	return &c, nil
}

func (r *ChecklistRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.Checklist, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, card_id, title, position, created_at, updated_at
		 FROM checklists WHERE card_id = $1
		 ORDER BY position`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("checklistRepo.ListByCard: %w", err)
	}
	defer rows.Close()

	var checklists []*domain.Checklist
	for rows.Next() {
		var c domain.Checklist
		if err := rows.Scan(&c.ID, &c.CardID, &c.Title, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("checklistRepo.ListByCard: scan: %w", err)
		}
		checklists = append(checklists, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("checklistRepo.ListByCard: %w", err)
	}

	for _, c := range checklists {
		items, err := r.listItems(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Items = items
	}

	return checklists, nil
}

func (r *ChecklistRepo) listItems(ctx context.Context, checklistID uuid.UUID) ([]*domain.ChecklistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, checklist_id, text, done, position
		 FROM checklist_items WHERE checklist_id = $1
		 ORDER BY position`,
		checklistID,
	)
	if err != nil {
		return nil, fmt.Errorf("checklistRepo.listItems: %w", err)
	}
	defer rows.Close()

	items := []*domain.ChecklistItem{}
	for rows.Next() {
		var item domain.ChecklistItem
		if err := rows.Scan(&item.ID, &item.ChecklistID, &item.Text, &item.Done, &item.Position); err != nil {
			return nil, fmt.Errorf("checklistRepo.listItems: scan: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("checklistRepo.listItems: %w", err)
	}

	return items, nil
}

func (r *ChecklistRepo) Update(ctx context.Context, c *domain.Checklist) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE checklists SET title = $2, position = $3, updated_at = now() WHERE id = $1`,
		c.ID, c.Title, c.Position,
	)
	if err != nil {
		return fmt.Errorf("checklistRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checklistRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ChecklistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("checklistRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checklistRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ChecklistRepo) AddItem(ctx context.Context, item *domain.ChecklistItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO checklist_items (id, checklist_id, text, done, position)
		 VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.ChecklistID, item.Text, item.Done, item.Position,
	)
	if err != nil {
		return fmt.Errorf("checklistRepo.AddItem: %w", err)
	}

	return nil
}

func (r *ChecklistRepo) UpdateItem(ctx context.Context, item *domain.ChecklistItem) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE checklist_items SET text = $2, done = $3, position = $4 WHERE id = $1`,
		item.ID, item.Text, item.Done, item.Position,
	)
	if err != nil {
		return fmt.Errorf("checklistRepo.UpdateItem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checklistRepo.UpdateItem: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ChecklistRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("checklistRepo.DeleteItem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checklistRepo.DeleteItem: %w", domain.ErrNotFound)
	}

	return nil
}
