package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
)

type CreateListInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	Body      struct {
		Title    string `json:"title" minLength:"1" maxLength:"255" doc:"List title"`
		Position int    `json:"position" minimum:"0" doc:"Position on the board"`
	}
}

type CreateListOutput struct {
	Body *domain.BoardList
}

type ListListsInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type ListListsOutput struct {
	Body []*domain.BoardList
}

type UpdateListInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"List ID"`
	Body      struct {
		Title    string `json:"title,omitempty" maxLength:"255" doc:"List title"`
		Position *int   `json:"position,omitempty" minimum:"0" doc:"Position on the board"`
	}
}

type UpdateListOutput struct {
	Body *domain.BoardList
}

type DeleteListInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	ID        uuid.UUID `path:"id" doc:"List ID"`
}

// getProjectList loads a list and verifies it belongs to the project in the path.
func getProjectList(ctx context.Context, store DataStore, projectID, listID uuid.UUID) (*domain.BoardList, error) {
	l, err := store.Lists().GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("list not found")
		}
		return nil, huma.Error500InternalServerError("failed to get list", err)
	}
	if l.ProjectID != projectID {
		return nil, huma.Error404NotFound("list not found")
	}
	return l, nil
}

func RegisterListRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-list",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/lists",
		Summary:     "Create a list on the board",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *CreateListInput) (*CreateListOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		l, err := domain.NewBoardList(input.ProjectID, input.Body.Title, input.Body.Position)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if createErr := store.Lists().Create(ctx, l); createErr != nil {
			return nil, huma.Error500InternalServerError("failed to create list", createErr)
		}

		return &CreateListOutput{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-lists",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/lists",
		Summary:     "List the board's lists in position order",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *ListListsInput) (*ListListsOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		lists, err := store.Lists().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list lists", err)
		}

		return &ListListsOutput{Body: lists}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-list",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/lists/{id}",
		Summary:     "Update a list",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *UpdateListInput) (*UpdateListOutput, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		existing, err := getProjectList(ctx, store, input.ProjectID, input.ID)
		if err != nil {
			return nil, err
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Position != nil {
			existing.Position = *input.Body.Position
		}

		if err := store.Lists().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update list", err)
		}

		return &UpdateListOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-list",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/lists/{id}",
		Summary:     "Delete a list and its cards",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *DeleteListInput) (*struct{}, error) {
		if _, err := requireWriter(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		if _, err := getProjectList(ctx, store, input.ProjectID, input.ID); err != nil {
			return nil, err
		}

		if err := store.Lists().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete list", err)
		}

		return nil, nil
	})
}
