package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Checklist struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	Title     string
	Position  int
	Items     []*ChecklistItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChecklistItem struct {
	ID          uuid.UUID
	ChecklistID uuid.UUID
	Text        string
	Done        bool
	Position    int
}

// NewChecklist creates a checklist with validated required fields.
func NewChecklist(cardID uuid.UUID, title string, position int) (*Checklist, error) {
	if cardID == uuid.Nil {
		return nil, errors.New("checklist: card ID is required")
	}
	if title == "" {
		return nil, errors.New("checklist: title is required")
	}
	now := time.Now()
	return &Checklist{
		ID:        uuid.New(),
		CardID:    cardID,
		Title:     title,
		Position:  position,
		Items:     []*ChecklistItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Progress returns completed and total item counts.
func (c *Checklist) Progress() (done, total int) {
	for _, item := range c.Items {
		if item.Done {
			done++
		}
	}
	return done, len(c.Items)
}

type ChecklistRepository interface {
	Create(ctx context.Context, c *Checklist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*Checklist, error)
	Update(ctx context.Context, c *Checklist) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, item *ChecklistItem) error
	UpdateItem(ctx context.Context, item *ChecklistItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}
