package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/querypilot/backend/internal/handler/auth"
	databaseHandler "github.com/querypilot/backend/internal/handler/database"
	"github.com/querypilot/backend/internal/handler/notify"
	queryHandler "github.com/querypilot/backend/internal/handler/query"
	sessionHandler "github.com/querypilot/backend/internal/handler/session"
	middlewarePkg "github.com/querypilot/backend/internal/middleware"
	authService "github.com/querypilot/backend/internal/service/auth"
	queryService "github.com/querypilot/backend/internal/service/query"
	sessionService "github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	st store.Store,
	authSvc *authService.Service,
	sessions *sessionService.Manager,
	executor *queryService.Executor,
	hub *notify.Hub,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	auth := authHandler.New(authSvc)
	sessionH := sessionHandler.New(sessions)
	queryH := queryHandler.New(executor)
	databaseH := databaseHandler.New(st, sessions)

	r.Route("/api", func(api chi.Router) {
		auth.RegisterRoutes(api)
		api.Get("/ws", hub.ServeHTTP)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.RequireAuth(authSvc))
			auth.RegisterProtectedRoutes(protected)
			sessionH.RegisterRoutes(protected)
			queryH.RegisterRoutes(protected)
			databaseH.RegisterRoutes(protected)
		})
	})

	return r
}
