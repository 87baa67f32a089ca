package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
	"github.com/gosuda/lanes/internal/server/middleware"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Projects() domain.ProjectRepository
	Members() domain.MemberRepository
	Lists() domain.ListRepository
	Cards() domain.CardRepository
	Checklists() domain.ChecklistRepository
	Pages() domain.PageRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	LoginOAuth(ctx context.Context, provider, providerID, email, name, avatarURL string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// requireMember resolves the authenticated user's membership in a project.
// Returns 403 when the user is not a member.
func requireMember(ctx context.Context, store DataStore, projectID uuid.UUID) (*domain.ProjectMember, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing user context")
	}

	m, err := store.Members().Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error403Forbidden("not a member of this project")
		}
		return nil, huma.Error500InternalServerError("failed to check membership", err)
	}

	return m, nil
}

// requireWriter is requireMember plus a write-permission check.
func requireWriter(ctx context.Context, store DataStore, projectID uuid.UUID) (*domain.ProjectMember, error) {
	m, err := requireMember(ctx, store, projectID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanWrite() {
		return nil, huma.Error403Forbidden("viewers cannot modify the board")
	}
	return m, nil
}
