package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
)

type CreateCardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	Body      struct {
		ListID      uuid.UUID  `json:"list_id" doc:"List the card starts in"`
		Title       string     `json:"title" minLength:"1" maxLength:"512" doc:"Card title"`
		Description string     `json:"description,omitempty" doc:"Card description"`
		Position    int        `json:"position" minimum:"0" doc:"Position within the list"`
		Labels      []string   `json:"labels,omitempty" doc:"Labels"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date"`
		AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" doc:"Assignee user ID"`
	}
}

type CreateCardOutput struct {
	Body *domain.Card
}

type ListCardsInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ListID    uuid.UUID `query:"list_id" required:"false" doc:"Filter by list"`
}

type ListCardsOutput struct {
	Body []*domain.Card
}

type GetCardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Card ID"`
}

type GetCardOutput struct {
	Body *domain.Card
}

type UpdateCardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Card ID"`
	Body      struct {
		Title       string     `json:"title,omitempty" maxLength:"512" doc:"Card title"`
		Description *string    `json:"description,omitempty" doc:"Card description"`
		Labels      []string   `json:"labels,omitempty" doc:"Labels"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date"`
		AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" doc:"Assignee user ID"`
	}
}

type UpdateCardOutput struct {
	Body *domain.Card
}

type MoveCardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Card ID"`
	Body      struct {
		DestinationListID uuid.UUID `json:"destination_list_id" doc:"List to move the card to"`
		Position          int       `json:"position" minimum:"0" doc:"Position within the destination list"`
	}
}

type MoveCardOutput struct {
	Body *domain.Card
}

type DeleteCardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"Card ID"`
}

func getProjectCard(ctx context.Context, store DataStore, projectID, cardID uuid.UUID) (*domain.Card, error) {
	c, err := store.Cards().GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("card not found")
		}
		return nil, huma.Error500InternalServerError("failed to get card", err)
	}
	if c.ProjectID != projectID {
		return nil, huma.Error404NotFound("card not found")
	}
	return c, nil
}

func RegisterCardRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-card",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/cards",
		Summary:     "Create a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CreateCardInput) (*CreateCardOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getProjectList(ctx, store, input.ProjectID, input.Body.ListID); err != nil {
			return nil, err
		}

		c, err := domain.NewCard(input.ProjectID, input.Body.ListID, input.Body.Title, input.Body.Position)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		c.Description = input.Body.Description
		if input.Body.Labels != nil {
			c.Labels = input.Body.Labels
		}
		c.DueDate = input.Body.DueDate
		c.AssignedTo = input.Body.AssignedTo

		if createErr := store.Cards().Create(ctx, c); createErr != nil {
			return nil, huma.Error500InternalServerError("failed to create card", createErr)
		}

		return &CreateCardOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cards",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/cards",
		Summary:     "List cards, optionally filtered by list",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *ListCardsInput) (*ListCardsOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		var (
			cards []*domain.Card
			err   error
		)
		if input.ListID != uuid.Nil {
			cards, err = store.Cards().ListByList(ctx, input.ListID)
		} else {
			cards, err = store.Cards().ListByProject(ctx, input.ProjectID)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list cards", err)
		}

		return &ListCardsOutput{Body: cards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/cards/{id}",
		Summary:     "Get a card by ID",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *GetCardInput) (*GetCardOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		c, err := getProjectCard(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		return &GetCardOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/cards/{id}",
		Summary:     "Update a card's fields",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardInput) (*UpdateCardOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		existing, err := getProjectCard(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Labels != nil {
			existing.Labels = input.Body.Labels
		}
		if input.Body.DueDate != nil {
			existing.DueDate = input.Body.DueDate
		}
		if input.Body.AssignedTo != nil {
			existing.AssignedTo = input.Body.AssignedTo
		}

		if err := store.Cards().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update card", err)
		}

		return &UpdateCardOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-card",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/cards/{id}/move",
		Summary:     "Move a card to a list position",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *MoveCardInput) (*MoveCardOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getProjectCard(ctx, store, input.ProjectID, input.ID); err != nil {
			return nil, err
		}
		if _, err := getProjectList(ctx, store, input.ProjectID, input.Body.DestinationListID); err != nil {
			return nil, err
		}

		if err := store.Cards().Move(ctx, input.ID, input.Body.DestinationListID, input.Body.Position); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("destination list belongs to another project")
			}
			return nil, huma.Error500InternalServerError("failed to move card", err)
		}

		moved, err := getProjectCard(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		return &MoveCardOutput{Body: moved}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-card",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/cards/{id}",
		Summary:     "Delete a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *DeleteCardInput) (*struct{}, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getProjectCard(ctx, store, input.ProjectID, input.ID); err != nil {
			return nil, err
		}

		if err := store.Cards().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete card", err)
		}

		return nil, nil
	})
}
