package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lanes/internal/domain"
	"github.com/gosuda/lanes/internal/server/middleware"
)

// PageNotifier receives page workflow notifications. *notify.SlackNotifier
// satisfies this interface.
type PageNotifier interface {
	PageStatusChanged(ctx context.Context, page *domain.Page, actorName string, from, to domain.PageStatus) error
}

type CreatePageInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	Body      struct {
		Title string `json:"title" minLength:"1" maxLength:"255" doc:"Page title"`
		Text  string `json:"body,omitempty" doc:"Page body (markdown)"`
	}
}

type CreatePageOutput struct {
	Body *domain.Page
}

type ListPagesInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type ListPagesOutput struct {
	Body []*domain.Page
}

type GetPageInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Page ID"`
}

type GetPageOutput struct {
	Body *domain.Page
}

type UpdatePageInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Page ID"`
	Body      struct {
		Title string  `json:"title,omitempty" maxLength:"255" doc:"Page title"`
		Text  *string `json:"body,omitempty" doc:"Page body (markdown)"`
	}
}

type UpdatePageOutput struct {
	Body *domain.Page
}

type TransitionPageInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Page ID"`
	Body      struct {
		Status string `json:"status" enum:"draft,review,approved,published" doc:"Target status"`
	}
}

type TransitionPageOutput struct {
	Body *domain.Page
}

type DeletePageInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Page ID"`
}

func getProjectPage(ctx context.Context, store DataStore, projectID, pageID uuid.UUID) (*domain.Page, error) {
	p, err := store.Pages().GetByID(ctx, pageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("page not found")
		}
		return nil, huma.Error500InternalServerError("failed to get page", err)
	}
	if p.ProjectID != projectID {
		return nil, huma.Error404NotFound("page not found")
	}
	return p, nil
}

// RegisterPageRoutes wires page CRUD and the status workflow.
// notifier may be nil when Slack is not configured.
func RegisterPageRoutes(api huma.API, store DataStore, notifier PageNotifier) {
	huma.Register(api, huma.Operation{
		OperationID: "create-page",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/pages",
		Summary:     "Create a draft page",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *CreatePageInput) (*CreatePageOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		userID, _ := middleware.UserIDFromContext(ctx)

		p, err := domain.NewPage(input.ProjectID, userID, input.Body.Title, input.Body.Text)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if createErr := store.Pages().Create(ctx, p); createErr != nil {
			return nil, huma.Error500InternalServerError("failed to create page", createErr)
		}

		return &CreatePageOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pages",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/pages",
		Summary:     "List a project's pages",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *ListPagesInput) (*ListPagesOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		pages, err := store.Pages().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list pages", err)
		}

		return &ListPagesOutput{Body: pages}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-page",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/pages/{id}",
		Summary:     "Get a page by ID",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *GetPageInput) (*GetPageOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		p, err := getProjectPage(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		return &GetPageOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-page",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/pages/{id}",
		Summary:     "Update a page's content",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *UpdatePageInput) (*UpdatePageOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		existing, err := getProjectPage(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		// Published pages are immutable until withdrawn back to draft.
		if existing.Status == domain.PageStatusPublished {
			return nil, huma.Error409Conflict("published pages cannot be edited")
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Text != nil {
			existing.Body = *input.Body.Text
		}

		if err := store.Pages().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update page", err)
		}

		return &UpdatePageOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-page",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/pages/{id}/status",
		Summary:     "Move a page through the draft/review/approve/publish workflow",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *TransitionPageInput) (*TransitionPageOutput, error) {
		m, err := requireMember(ctx, store, input.ProjectID)
		if err != nil {
			return nil, err
		}

		p, err := getProjectPage(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		to := domain.PageStatus(input.Body.Status)
		if !p.Status.ValidTransition(to) {
			return nil, huma.Error409Conflict("invalid status transition")
		}
		if !domain.RoleMayTransition(m.Role, to) {
			return nil, huma.Error403Forbidden("role does not permit this transition")
		}

		from := p.Status
		if err := store.Pages().UpdateStatus(ctx, p.ID, to); err != nil {
			return nil, huma.Error500InternalServerError("failed to update page status", err)
		}
		p.Status = to

		if notifier != nil {
			actorName := ""
			if actor, userErr := store.Users().GetByID(ctx, m.UserID); userErr == nil {
				actorName = actor.Name
			}
			if notifyErr := notifier.PageStatusChanged(ctx, p, actorName, from, to); notifyErr != nil {
				log.Warn().Err(notifyErr).Str("page_id", p.ID.String()).Msg("pages: status notification failed")
			}
		}

		return &TransitionPageOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-page",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/pages/{id}",
		Summary:     "Delete a page",
		Tags:        []string{"Pages"},
	}, func(ctx context.Context, input *DeletePageInput) (*struct{}, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getProjectPage(ctx, store, input.ProjectID, input.ID); err != nil {
			return nil, err
		}

		if err := store.Pages().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete page", err)
		}

		return nil, nil
	})
}
