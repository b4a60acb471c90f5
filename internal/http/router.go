package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps holds the handlers the router exposes.
type Deps struct {
	Health      http.Handler
	Ask         http.Handler
	ChatReset   http.Handler
	ChatHistory http.Handler
	Process     http.Handler
	Videos      http.Handler
	VideoChunks http.Handler
	VideoDelete http.Handler
	Stats       http.Handler
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Method(http.MethodGet, "/healthz", deps.Health)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", deps.Ask)
		r.Method(http.MethodPost, "/chat/reset", deps.ChatReset)
		r.Method(http.MethodGet, "/chat/history", deps.ChatHistory)
		r.Method(http.MethodPost, "/process", deps.Process)
		r.Method(http.MethodGet, "/videos", deps.Videos)
		r.Method(http.MethodGet, "/videos/{name}/chunks", deps.VideoChunks)
		r.Method(http.MethodDelete, "/videos/{name}", deps.VideoDelete)
		r.Method(http.MethodGet, "/stats", deps.Stats)
	})

	return r
}
