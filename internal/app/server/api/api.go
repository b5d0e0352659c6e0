// Package api assembles the inspection authority's HTTP surface.
//
//	GET  /api/v1/health           health (public)
//	POST /inspections/{localId}   version-checked push (device token)
//	GET  /inspections/{localId}   stored snapshot (device token)
package api

import (
	healthAPI "fieldinspect/internal/app/server/api/http/health"
	inspectionAPI "fieldinspect/internal/app/server/api/http/inspection"
	"fieldinspect/internal/app/server/api/http/middleware"
	"fieldinspect/internal/app/server/api/http/middleware/auth"
	"fieldinspect/internal/app/server/api/http/middleware/logger"
	"fieldinspect/internal/domain/authority"
	"fieldinspect/internal/domain/session"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health     *healthAPI.Handler
	Inspection *inspectionAPI.Handler
}

// Deps are the services the API is built on.
type Deps struct {
	DB        healthAPI.Pinger
	Authority authority.Servicer
	Sessions  session.Servicer
}

// New creates a *chi.Mux with every operation registered through huma.
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.Recoverer)

	config := huma.DefaultConfig("Inspection Authority API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.Inspection.SetupRoutes(API)

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	authMW := auth.New(deps.Sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.DB, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	inspectionHandler := inspectionAPI.NewHandler(deps.Authority, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:     healthHandler,
		Inspection: inspectionHandler,
	}
}
