package server

import (
	"github.com/go-chi/chi/v5"
)

func (s Server) RegisterRoutes(r chi.Router, adminToken string) {
	r.Route("/v1", func(r chi.Router) {
		// public zone, viewer resolved from an optional bearer token
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", handler(s.getV1Deals))
			r.Get("/{dealNumber}", handler(s.getV1Deal))
		})

		// operator zone
		r.Group(func(r chi.Router) {
			r.Use(adminOnly(adminToken))

			r.Route("/scans", func(r chi.Router) {
				r.Post("/", handler(s.postV1Scans))
				r.Get("/", handler(s.getV1Scans))
			})

			r.Get("/budget", handler(s.getV1Budget))

			r.Route("/admin", func(r chi.Router) {
				r.Post("/deals/{dealNumber}/publish", handler(s.postV1AdminPublish))
				r.Post("/deals/{dealNumber}/cancel", handler(s.postV1AdminCancel))
				r.Post("/deals/{dealNumber}/unlocks", handler(s.postV1AdminUnlock))
				r.Post("/deals/{dealNumber}/recheck", handler(s.postV1AdminRecheck))
				r.Post("/subscribers", handler(s.postV1AdminSubscribers))
			})
		})
	})
}
