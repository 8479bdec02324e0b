package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Route("/ws", func(r chi.Router) {
			r.Get("/player", c.servePlayer)
		})
		r.Group(func(r chi.Router) {
			r.Use(c.rateLimitMw)
			r.Get("/resolve", c.resolve)
			r.Route("/loops", func(r chi.Router) {
				r.Use(c.authMw)
				r.Post("/", c.createLoop)
				r.Get("/", c.listLoops)
				r.Route("/trash", func(r chi.Router) {
					r.Get("/", c.listTrash)
					r.Post("/{loop-id}/restore", c.restoreLoop)
					r.Delete("/{loop-id}", c.purgeLoop)
				})
				r.Route("/{loop-id}", func(r chi.Router) {
					r.Get("/", c.getLoop)
					r.Delete("/", c.deleteLoop)
					r.Post("/play", c.playLoop)
				})
			})
		})
	})

	return r
}
