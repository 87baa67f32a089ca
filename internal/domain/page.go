package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusReview    PageStatus = "review"
	PageStatusApproved  PageStatus = "approved"
	PageStatusPublished PageStatus = "published"
)

// ValidTransition checks if a page status transition is allowed.
// Allowed: draft->review, review->approved, review->draft (rework),
// approved->published, approved->draft (withdraw).
func (s PageStatus) ValidTransition(to PageStatus) bool {
	switch s {
	case PageStatusDraft:
		return to == PageStatusReview
	case PageStatusReview:
		return to == PageStatusApproved || to == PageStatusDraft
	case PageStatusApproved:
		return to == PageStatusPublished || to == PageStatusDraft
	default:
		return false
	}
}

// RoleMayTransition gates status changes by member role: editors may move
// content into review or back to draft, only owners approve and publish.
func RoleMayTransition(role MemberRole, to PageStatus) bool {
	switch to {
	case PageStatusReview, PageStatusDraft:
		return role.CanWrite()
	case PageStatusApproved, PageStatusPublished:
		return role == MemberRoleOwner
	default:
		return false
	}
}

var ErrInvalidTransition = errors.New("page: invalid status transition")

type Page struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Body      string
	Status    PageStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPage creates a draft page with validated required fields.
func NewPage(projectID, authorID uuid.UUID, title, body string) (*Page, error) {
	if projectID == uuid.Nil {
		return nil, errors.New("page: project ID is required")
	}
	if authorID == uuid.Nil {
		return nil, errors.New("page: author ID is required")
	}
	if title == "" {
		return nil, errors.New("page: title is required")
	}
	now := time.Now()
	return &Page{
		ID:        uuid.New(),
		ProjectID: projectID,
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Status:    PageStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type PageRepository interface {
	Create(ctx context.Context, p *Page) error
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Page, error)
	Update(ctx context.Context, p *Page) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status PageStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
