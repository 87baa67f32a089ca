package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/lanes/internal/domain"
)

type Store struct {
	pool       *pgxpool.Pool
	users      *UserRepo
	projects   *ProjectRepo
	members    *MemberRepo
	lists      *ListRepo
	cards      *CardRepo
	checklists *ChecklistRepo
	pages      *PageRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:       pool,
		users:      NewUserRepo(pool),
		projects:   NewProjectRepo(pool),
		members:    NewMemberRepo(pool),
		lists:      NewListRepo(pool),
		cards:      NewCardRepo(pool),
		checklists: NewChecklistRepo(pool),
		pages:      NewPageRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() domain.UserRepository           { return s.users }
func (s *Store) Projects() domain.ProjectRepository     { return s.projects }
func (s *Store) Members() domain.MemberRepository       { return s.members }
func (s *Store) Lists() domain.ListRepository           { return s.lists }
func (s *Store) Cards() domain.CardRepository           { return s.cards }
func (s *Store) Checklists() domain.ChecklistRepository { return s.checklists }
func (s *Store) Pages() domain.PageRepository           { return s.pages }
