package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fareglitch/pkg/logx"
	"fareglitch/pkg/middlewarex"
)

const corsMaxAge = 300

type RouterOptions struct {
	AdminToken     string
	CORSOrigins    []string
	LogFieldMaxLen int
}

func NewRouter(s Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewarex.RequestContext,
		middlewarex.Logging(logx.NewSensitiveDataMasker(), opts.LogFieldMaxLen),
		middlewarex.Recovery,
		cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", middlewarex.HeaderTraceID},
			ExposedHeaders: []string{middlewarex.HeaderTraceID},
			MaxAge:         corsMaxAge,
		}),
	)

	s.RegisterRoutes(r, opts.AdminToken)

	return r
}
