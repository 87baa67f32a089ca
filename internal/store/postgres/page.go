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

type PageRepo struct {
	pool *pgxpool.Pool
}

func NewPageRepo(pool *pgxpool.Pool) *PageRepo {
	return &PageRepo{pool: pool}
}

func (r *PageRepo) Create(ctx context.Context, p *domain.Page) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO pages (id, project_id, author_id, title, body, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ProjectID, p.AuthorID, p.Title, p.Body, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("pageRepo.Create: %w", err)
	}

	return nil
}

func (r *PageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	var p domain.Page

	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, author_id, title, body, status, created_at, updated_at
		 FROM pages WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ProjectID, &p.AuthorID, &p.Title, &p.Body, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pageRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pageRepo.GetByID: %w", err)
	}

	return &p, nil
}

func (r *PageRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Page, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, author_id, title, body, status, created_at, updated_at
		 FROM pages WHERE project_id = $1
		 ORDER BY created_at
		 LIMIT 1000`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("pageRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var pages []*domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.AuthorID, &p.Title, &p.Body, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pageRepo.ListByProject: scan: %w", err)
		}
		pages = append(pages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pageRepo.ListByProject: %w", err)
	}

	return pages, nil
}

func (r *PageRepo) Update(ctx context.Context, p *domain.Page) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pages SET title = $2, body = $3, updated_at = now() WHERE id = $1`,
		p.ID, p.Title, p.Body,
	)
	if err != nil {
		return fmt.Errorf("pageRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pageRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *PageRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PageStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pages SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("pageRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pageRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *PageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pageRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pageRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
