package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
	"github.com/gosuda/lanes/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user/role into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, "member")
	return ctx
}

// ---------------------------------------------------------------------------
// In-memory DataStore
// ---------------------------------------------------------------------------

type memStore struct {
	users      *memUserRepo
	projects   *memProjectRepo
	members    *memMemberRepo
	lists      *memListRepo
	cards      *memCardRepo
	checklists *memChecklistRepo
	pages      *memPageRepo
}

func newMemStore() *memStore {
	return &memStore{
		users:      &memUserRepo{byID: make(map[uuid.UUID]*domain.User)},
		projects:   &memProjectRepo{byID: make(map[uuid.UUID]*domain.Project)},
		members:    &memMemberRepo{byKey: make(map[string]*domain.ProjectMember)},
		lists:      &memListRepo{byID: make(map[uuid.UUID]*domain.BoardList)},
		cards:      &memCardRepo{byID: make(map[uuid.UUID]*domain.Card)},
		checklists: &memChecklistRepo{byID: make(map[uuid.UUID]*domain.Checklist)},
		pages:      &memPageRepo{byID: make(map[uuid.UUID]*domain.Page)},
	}
}

func (m *memStore) Users() domain.UserRepository           { return m.users }
func (m *memStore) Projects() domain.ProjectRepository     { return m.projects }
func (m *memStore) Members() domain.MemberRepository       { return m.members }
func (m *memStore) Lists() domain.ListRepository           { return m.lists }
func (m *memStore) Cards() domain.CardRepository           { return m.cards }
func (m *memStore) Checklists() domain.ChecklistRepository { return m.checklists }
func (m *memStore) Pages() domain.PageRepository           { return m.pages }

// addMember seeds a membership row directly.
func (m *memStore) addMember(projectID, userID uuid.UUID, role domain.MemberRole) {
	_ = m.members.Add(context.Background(), &domain.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type memUserRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.User
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) CreateOAuthLink(_ context.Context, _ *domain.UserOAuthLink) error { return nil }

func (r *memUserRepo) GetOAuthLink(_ context.Context, _, _ string) (*domain.UserOAuthLink, error) {
	return nil, domain.ErrNotFound
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

type memProjectRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Project
}

func (r *memProjectRepo) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

func (r *memProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *memProjectRepo) Update(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *memProjectRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Project, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

type memMemberRepo struct {
	mu    sync.Mutex
	byKey map[string]*domain.ProjectMember
}

func memberKey(projectID, userID uuid.UUID) string {
	return projectID.String() + ":" + userID.String()
}

func (r *memMemberRepo) Add(_ context.Context, m *domain.ProjectMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[memberKey(m.ProjectID, m.UserID)] = m
	return nil
}

func (r *memMemberRepo) Get(_ context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byKey[memberKey(projectID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (r *memMemberRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.ProjectMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ProjectMember
	for _, m := range r.byKey {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMemberRepo) Remove(_ context.Context, projectID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(projectID, userID)
	if _, ok := r.byKey[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byKey, key)
	return nil
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

type memListRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.BoardList
}

func (r *memListRepo) Create(_ context.Context, l *domain.BoardList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.ID] = l
	return nil
}

func (r *memListRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.BoardList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (r *memListRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.BoardList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BoardList
	for _, l := range r.byID {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memListRepo) Update(_ context.Context, l *domain.BoardList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[l.ID] = l
	return nil
}

func (r *memListRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

type memCardRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.Card
	moveErr error
}

func (r *memCardRepo) Create(_ context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
	return nil
}

func (r *memCardRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *memCardRepo) ListByList(_ context.Context, listID uuid.UUID) ([]*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.byID {
		if c.ListID == listID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCardRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Card
	for _, c := range r.byID {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCardRepo) Update(_ context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *memCardRepo) Move(_ context.Context, cardID, destListID uuid.UUID, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.moveErr != nil {
		return r.moveErr
	}
	c, ok := r.byID[cardID]
	if !ok {
		return domain.ErrNotFound
	}
	c.ListID = destListID
	c.Position = position
	return nil
}

func (r *memCardRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Checklists
// ---------------------------------------------------------------------------

type memChecklistRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Checklist
}

func (r *memChecklistRepo) Create(_ context.Context, c *domain.Checklist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
	return nil
}

func (r *memChecklistRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *memChecklistRepo) ListByCard(_ context.Context, cardID uuid.UUID) ([]*domain.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Checklist
	for _, c := range r.byID {
		if c.CardID == cardID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memChecklistRepo) Update(_ context.Context, c *domain.Checklist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *memChecklistRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memChecklistRepo) AddItem(_ context.Context, item *domain.ChecklistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.byID[item.ChecklistID]
	if !ok {
		return domain.ErrNotFound
	}
	cl.Items = append(cl.Items, item)
	return nil
}

func (r *memChecklistRepo) UpdateItem(_ context.Context, item *domain.ChecklistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.byID[item.ChecklistID]
	if !ok {
		return domain.ErrNotFound
	}
	for i, it := range cl.Items {
		if it.ID == item.ID {
			cl.Items[i] = item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memChecklistRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cl := range r.byID {
		for i, it := range cl.Items {
			if it.ID == id {
				cl.Items = append(cl.Items[:i], cl.Items[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

// ---------------------------------------------------------------------------
// Pages
// ---------------------------------------------------------------------------

type memPageRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Page
}

func (r *memPageRepo) Create(_ context.Context, p *domain.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

func (r *memPageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *memPageRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Page
	for _, p := range r.byID {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPageRepo) Update(_ context.Context, p *domain.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *memPageRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.PageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *memPageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
