package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/lanes/internal/domain"
)

type GetBoardInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type BoardColumn struct {
	List  *domain.BoardList `json:"list"`
	Cards []*domain.Card    `json:"cards"`
}

type GetBoardOutput struct {
	Body struct {
		Columns []*BoardColumn `json:"columns"`
	}
}

// RegisterBoardRoutes wires the composite board view: every list with its
// cards in a single response, for the initial board render.
func RegisterBoardRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{projectID}",
		Summary:     "Get the full board for a project",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID); err != nil {
			return nil, err
		}

		lists, err := store.Lists().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list lists for board", err)
		}

		cards, err := store.Cards().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list cards for board", err)
		}

		byList := make(map[uuid.UUID][]*domain.Card, len(lists))
		for _, c := range cards {
			byList[c.ListID] = append(byList[c.ListID], c)
		}

		out := &GetBoardOutput{}
		out.Body.Columns = make([]*BoardColumn, 0, len(lists))
		for _, l := range lists {
			colCards := byList[l.ID]
			if colCards == nil {
				colCards = make([]*domain.Card, 0)
			}
			out.Body.Columns = append(out.Body.Columns, &BoardColumn{List: l, Cards: colCards})
		}

		return out, nil
	})
}
