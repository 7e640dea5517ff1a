package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Roles (read-only enumeration)
		r.Get("/roles", s.HandleListRoles)

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.HandleListUsers)
			r.Post("/", s.HandleCreateUser)
			r.Get("/me", s.HandleGetCurrentUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetUser)
				r.Put("/", s.HandleUpdateUser)
				r.Delete("/", s.HandleDeleteUser)
			})
		})

		// Regions
		r.Route("/regions", func(r chi.Router) {
			r.Get("/", s.HandleListRegions)
			r.Post("/", s.HandleCreateRegion)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetRegion)
				r.Put("/", s.HandleUpdateRegion)
				r.Delete("/", s.HandleDeleteRegion)
			})
		})

		// Tariffs
		r.Route("/tariffs", func(r chi.Router) {
			r.Get("/", s.HandleListTariffs)
			r.Post("/", s.HandleCreateTariff)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTariff)
				r.Put("/", s.HandleUpdateTariff)
				r.Delete("/", s.HandleDeleteTariff)
			})
		})

		// Buildings
		r.Route("/buildings", func(r chi.Router) {
			r.Get("/", s.HandleListBuildings)
			r.Post("/", s.HandleCreateBuilding)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetBuilding)
				r.Put("/", s.HandleUpdateBuilding)
				r.Delete("/", s.HandleDeleteBuilding)
			})
		})

		// Meters
		r.Route("/meters", func(r chi.Router) {
			r.Get("/", s.HandleListMeters)
			r.Post("/", s.HandleCreateMeter)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetMeter)
				r.Put("/", s.HandleUpdateMeter)
				r.Delete("/", s.HandleDeleteMeter)
			})
		})

		// Consumption records
		r.Route("/consumption", func(r chi.Router) {
			r.Get("/", s.HandleListConsumption)
			r.Post("/", s.HandleCreateConsumption)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetConsumption)
				r.Put("/", s.HandleUpdateConsumption)
				r.Delete("/", s.HandleDeleteConsumption)
			})
		})

		// Reporting
		r.Get("/report", s.HandleReport)
		r.Get("/report/export", s.HandleReportExport)
		r.Get("/stats", s.HandleStats)
	})
}
