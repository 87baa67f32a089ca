package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/lanes/internal/api/v1"
	"github.com/gosuda/lanes/internal/domain"
)

func TestCreateProject(t *testing.T) {
	t.Parallel()

	t.Run("creator becomes owner member", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, store)

		userID := uuid.New()
		resp := api.PostCtx(userCtx(userID), "/projects", map[string]any{
			"name":        "Roadmap",
			"description": "Q3 planning",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var p domain.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &p))
		assert.Equal(t, "Roadmap", p.Name)
		assert.Equal(t, userID, p.OwnerID)

		m, err := store.Members().Get(context.Background(), p.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberRoleOwner, m.Role)
	})

	t.Run("missing user context is unauthorized", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, store)

		resp := api.Post("/projects", map[string]any{"name": "Roadmap"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestGetProject(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_, api := humatest.New(t)
	v1.RegisterProjectRoutes(api, store)

	owner := uuid.New()
	project, err := domain.NewProject(owner, "Roadmap", "")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Create(context.Background(), project))
	store.addMember(project.ID, owner, domain.MemberRoleOwner)

	t.Run("member can read", func(t *testing.T) {
		resp := api.GetCtx(userCtx(owner), "/projects/"+project.ID.String())
		require.Equal(t, http.StatusOK, resp.Code)

		var p domain.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &p))
		assert.Equal(t, project.ID, p.ID)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		resp := api.GetCtx(userCtx(uuid.New()), "/projects/"+project.ID.String())
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_, api := humatest.New(t)
	v1.RegisterProjectRoutes(api, store)

	owner := uuid.New()
	viewer := uuid.New()
	project, err := domain.NewProject(owner, "Roadmap", "")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Create(context.Background(), project))
	store.addMember(project.ID, owner, domain.MemberRoleOwner)
	store.addMember(project.ID, viewer, domain.MemberRoleViewer)

	t.Run("writer can update", func(t *testing.T) {
		resp := api.PutCtx(userCtx(owner), "/projects/"+project.ID.String(), map[string]any{
			"name": "Roadmap v2",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		updated, err := store.Projects().GetByID(context.Background(), project.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roadmap v2", updated.Name)
	})

	t.Run("viewer cannot update", func(t *testing.T) {
		resp := api.PutCtx(userCtx(viewer), "/projects/"+project.ID.String(), map[string]any{
			"name": "hijacked",
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestDeleteProject(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_, api := humatest.New(t)
	v1.RegisterProjectRoutes(api, store)

	owner := uuid.New()
	editor := uuid.New()
	project, err := domain.NewProject(owner, "Roadmap", "")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Create(context.Background(), project))
	store.addMember(project.ID, owner, domain.MemberRoleOwner)
	store.addMember(project.ID, editor, domain.MemberRoleEditor)

	t.Run("editor cannot delete", func(t *testing.T) {
		resp := api.DeleteCtx(userCtx(editor), "/projects/"+project.ID.String())
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("owner can delete", func(t *testing.T) {
		resp := api.DeleteCtx(userCtx(owner), "/projects/"+project.ID.String())
		require.Equal(t, http.StatusNoContent, resp.Code)

		_, err := store.Projects().GetByID(context.Background(), project.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProjectMembers(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_, api := humatest.New(t)
	v1.RegisterProjectRoutes(api, store)

	owner := uuid.New()
	editor := uuid.New()
	project, err := domain.NewProject(owner, "Roadmap", "")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Create(context.Background(), project))
	store.addMember(project.ID, owner, domain.MemberRoleOwner)
	store.addMember(project.ID, editor, domain.MemberRoleEditor)

	newcomer := &domain.User{ID: uuid.New(), Email: "sam@example.com", Name: "Sam", Role: "member"}
	require.NoError(t, store.Users().Create(context.Background(), newcomer))

	base := "/projects/" + project.ID.String() + "/members"

	t.Run("owner adds a member", func(t *testing.T) {
		resp := api.PostCtx(userCtx(owner), base, map[string]any{
			"user_id": newcomer.ID,
			"role":    "viewer",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		m, err := store.Members().Get(context.Background(), project.ID, newcomer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberRoleViewer, m.Role)
	})

	t.Run("adding an unknown user is not found", func(t *testing.T) {
		resp := api.PostCtx(userCtx(owner), base, map[string]any{
			"user_id": uuid.New(),
			"role":    "viewer",
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("editor cannot manage members", func(t *testing.T) {
		resp := api.PostCtx(userCtx(editor), base, map[string]any{
			"user_id": newcomer.ID,
			"role":    "editor",
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("member can leave on their own", func(t *testing.T) {
		resp := api.DeleteCtx(userCtx(editor), base+"/"+editor.String())
		require.Equal(t, http.StatusNoContent, resp.Code)

		_, err := store.Members().Get(context.Background(), project.ID, editor)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-owner cannot remove others", func(t *testing.T) {
		// editor left above; re-add as viewer to exercise the check.
		store.addMember(project.ID, editor, domain.MemberRoleViewer)

		resp := api.DeleteCtx(userCtx(editor), base+"/"+newcomer.ID.String())
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
