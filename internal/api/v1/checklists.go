package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
)

type CreateChecklistInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	Body      struct {
		Title    string `json:"title" minLength:"1" maxLength:"255" doc:"Checklist title"`
		Position int    `json:"position" minimum:"0" doc:"Position on the card"`
	}
}

type CreateChecklistOutput struct {
	Body *domain.Checklist
}

type ListChecklistsInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
}

type ListChecklistsOutput struct {
	Body []*domain.Checklist
}

type UpdateChecklistInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	ID        uuid.UUID `path:"id" doc:"Checklist ID"`
	Body      struct {
		Title    string `json:"title,omitempty" maxLength:"255" doc:"Checklist title"`
		Position *int   `json:"position,omitempty" minimum:"0" doc:"Position on the card"`
	}
}

type UpdateChecklistOutput struct {
	Body *domain.Checklist
}

type DeleteChecklistInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	ID        uuid.UUID `path:"id" doc:"Checklist ID"`
}

type AddChecklistItemInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	ID        uuid.UUID `path:"id" doc:"Checklist ID"`
	Body      struct {
		Text     string `json:"text" minLength:"1" maxLength:"1024" doc:"Item text"`
		Position int    `json:"position" minimum:"0" doc:"Position within the checklist"`
	}
}

type AddChecklistItemOutput struct {
	Body *domain.ChecklistItem
}

type UpdateChecklistItemInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	ID        uuid.UUID `path:"id" doc:"Checklist ID"`
	ItemID    uuid.UUID `path:"itemID" doc:"Item ID"`
	Body      struct {
		Text     string `json:"text,omitempty" maxLength:"1024" doc:"Item text"`
		Done     *bool  `json:"done,omitempty" doc:"Completion state"`
		Position *int   `json:"position,omitempty" minimum:"0" doc:"Position within the checklist"`
	}
}

type UpdateChecklistItemOutput struct {
	Body *domain.ChecklistItem
}

type DeleteChecklistItemInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	CardID    uuid.UUID `path:"cardID" doc:"Card ID"`
	ID        uuid.UUID `path:"id" doc:"Checklist ID"`
	ItemID    uuid.UUID `path:"itemID" doc:"Item ID"`
}

// getCardChecklist loads a checklist and verifies the card/project chain.
func getCardChecklist(ctx context.Context, store DataStore, projectID, cardID, checklistID uuid.UUID) (*domain.Checklist, error) {
	if _, err := getProjectCard(ctx, store, projectID, cardID); err != nil {
		return nil, err
	}

	cl, err := store.Checklists().GetByID(ctx, checklistID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("checklist not found")
		}
		return nil, huma.Error500InternalServerError("failed to get checklist", err)
	}
	if cl.CardID != cardID {
		return nil, huma.Error404NotFound("checklist not found")
	}
	return cl, nil
}

func RegisterChecklistRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-checklist",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists",
		Summary:     "Create a checklist on a card",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *CreateChecklistInput) (*CreateChecklistOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}
		if _, err := getProjectCard(ctx, store, input.ProjectID, input.CardID); err != nil {
			return nil, err
		}

		cl, err := domain.NewChecklist(input.CardID, input.Body.Title, input.Body.Position)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if createErr := store.Checklists().Create(ctx, cl); createErr != nil {
			return nil, huma.Error500InternalServerError("failed to create checklist", createErr)
		}

		return &CreateChecklistOutput{Body: cl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-checklists",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists",
		Summary:     "List a card's checklists with items",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *ListChecklistsInput) (*ListChecklistsOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}
		if _, err := getProjectCard(ctx, store, input.ProjectID, input.CardID); err != nil {
			return nil, err
		}

		checklists, err := store.Checklists().ListByCard(ctx, input.CardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list checklists", err)
		}

		return &ListChecklistsOutput{Body: checklists}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-checklist",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists/{id}",
		Summary:     "Update a checklist",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *UpdateChecklistInput) (*UpdateChecklistOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		existing, err := getCardChecklist(ctx, store, input.ProjectID, input.CardID, input.ID)
		if err != nil {
			return nil, err
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Position != nil {
			existing.Position = *input.Body.Position
		}

		if err := store.Checklists().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update checklist", err)
		}

		return &UpdateChecklistOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-checklist",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists/{id}",
		Summary:     "Delete a checklist",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *DeleteChecklistInput) (*struct{}, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getCardChecklist(ctx, store, input.ProjectID, input.CardID, input.ID); err != nil {
			return nil, err
		}

		if err := store.Checklists().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete checklist", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-checklist-item",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists/{id}/items",
		Summary:     "Add an item to a checklist",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *AddChecklistItemInput) (*AddChecklistItemOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getCardChecklist(ctx, store, input.ProjectID, input.CardID, input.ID); err != nil {
			return nil, err
		}

		item := &domain.ChecklistItem{
			ID:          uuid.New(),
			ChecklistID: input.ID,
			Text:        input.Body.Text,
			Position:    input.Body.Position,
		}
		if err := store.Checklists().AddItem(ctx, item); err != nil {
			return nil, huma.Error500InternalServerError("failed to add item", err)
		}

		return &AddChecklistItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-checklist-item",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists/{id}/items/{itemID}",
		Summary:     "Update a checklist item",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *UpdateChecklistItemInput) (*UpdateChecklistItemOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		cl, err := getCardChecklist(ctx, store, input.ProjectID, input.CardID, input.ID)
		if err != nil {
			return nil, err
		}

		var item *domain.ChecklistItem
		for _, it := range cl.Items {
			if it.ID == input.ItemID {
				item = it
				break
			}
		}
		if item == nil {
			return nil, huma.Error404NotFound("checklist item not found")
		}

		if input.Body.Text != "" {
			item.Text = input.Body.Text
		}
		if input.Body.Done != nil {
			item.Done = *input.Body.Done
		}
		if input.Body.Position != nil {
			item.Position = *input.Body.Position
		}

		if err := store.Checklists().UpdateItem(ctx, item); err != nil {
			return nil, huma.Error500InternalServerError("failed to update item", err)
		}

		return &UpdateChecklistItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-checklist-item",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/cards/{cardID}/checklists/{id}/items/{itemID}",
		Summary:     "Delete a checklist item",
		Tags:        []string{"Checklists"},
	}, func(ctx context.Context, input *DeleteChecklistItemInput) (*struct{}, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getCardChecklist(ctx, store, input.ProjectID, input.CardID, input.ID); err != nil {
			return nil, err
		}

		if err := store.Checklists().DeleteItem(ctx, input.ItemID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("checklist item not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete item", err)
		}

		return nil, nil
	})
}
