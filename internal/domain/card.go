package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type BoardList struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Title     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBoardList creates a list with validated required fields.
func NewBoardList(projectID uuid.UUID, title string, position int) (*BoardList, error) {
	if projectID == uuid.Nil {
		return nil, errors.New("list: project ID is required")
	}
	if title == "" {
		return nil, errors.New("list: title is required")
	}
	if position < 0 {
		return nil, errors.New("list: position must be >= 0")
	}
	now := time.Now()
	return &BoardList{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type ListRepository interface {
	Create(ctx context.Context, l *BoardList) error
	GetByID(ctx context.Context, id uuid.UUID) (*BoardList, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*BoardList, error)
	Update(ctx context.Context, l *BoardList) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Card struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	ListID      uuid.UUID
	Title       string
	Description string
	Position    int
	Labels      []string
	DueDate     *time.Time // nullable
	AssignedTo  *uuid.UUID // nullable
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCard creates a card with validated required fields.
func NewCard(projectID, listID uuid.UUID, title string, position int) (*Card, error) {
	if projectID == uuid.Nil {
		return nil, errors.New("card: project ID is required")
	}
	if listID == uuid.Nil {
		return nil, errors.New("card: list ID is required")
	}
	if title == "" {
		return nil, errors.New("card: title is required")
	}
	if position < 0 {
		return nil, errors.New("card: position must be >= 0")
	}
	now := time.Now()
	return &Card{
		ID:        uuid.New(),
		ProjectID: projectID,
		ListID:    listID,
		Title:     title,
		Position:  position,
		Labels:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]*Card, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Card, error)
	Update(ctx context.Context, c *Card) error
	// Move reassigns a card to a list at the given position. The destination
	// list must belong to the card's project and position is clamped to
	// [0, sibling count]. Sibling positions are reindexed transactionally.
	Move(ctx context.Context, cardID, destListID uuid.UUID, position int) error
	Delete(ctx context.Context, id uuid.UUID) error
}
