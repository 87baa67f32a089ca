package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/lanes/internal/api/v1"
	"github.com/gosuda/lanes/internal/auth"
	"github.com/gosuda/lanes/internal/notify"
	"github.com/gosuda/lanes/internal/realtime"
	"github.com/gosuda/lanes/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service, oauthProvider *auth.OAuthProvider) {
	v1.RegisterAuthRoutes(api, authSvc, oauthProvider)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, notifier *notify.SlackNotifier) {
	// A nil *SlackNotifier must stay a nil interface in the handlers.
	var pageNotifier v1.PageNotifier
	if notifier != nil {
		pageNotifier = notifier
	}

	v1.RegisterUserRoutes(api, authSvc)
	v1.RegisterProjectRoutes(api, store)
	v1.RegisterListRoutes(api, store)
	v1.RegisterCardRoutes(api, store)
	v1.RegisterChecklistRoutes(api, store)
	v1.RegisterPageRoutes(api, store, pageNotifier)
	v1.RegisterBoardRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *realtime.Hub) {
	r.Get("/board", hub.ServeWS)
}
