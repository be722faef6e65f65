package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-switchd/internal/auth"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated
		r.Get("/health", s.handleHealth)
		r.Post("/auth/token", s.handleToken)
		if s.metrics != nil {
			r.Handle("/metrics", s.metrics)
		}

		// WebSocket authenticates with a ticket, validated in the handler
		wsPath := s.wsCfg.Path
		if wsPath == "" {
			wsPath = "/ws"
		}
		r.Get(wsPath, s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.With(s.requirePermission(auth.PermSwitchRead)).Get("/system", s.handleSystem)
			r.With(s.requirePermission(auth.PermSwitchRead)).Get("/audit", s.handleListAudit)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermSwitchRead)).Get("/", s.handleListDevices)

				r.Route("/{deviceID}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermSwitchRead)).Get("/", s.handleGetDevice)
					r.With(s.requirePermission(auth.PermMirrorRead)).Get("/mirror", s.handleListMirror)

					for _, kind := range model.AllKinds() {
						s.entityRoutes(r, kind)
					}
				})
			})
		})
	})

	return r
}

// entityRoutes mounts the registry and operation endpoints for one kind
// under /devices/{deviceID}/{kind}s.
func (s *Server) entityRoutes(r chi.Router, kind model.Kind) {
	codec := codecs[kind]
	r.Route("/"+string(kind)+"s", func(r chi.Router) {
		r.With(s.requirePermission(auth.PermSwitchRead)).Get("/", s.handleListRegistry(kind))

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermSwitchOperate))
			r.Post("/", s.handleAdd(codec))
			r.Put("/{entityID}", s.handleUpdate(codec))
			r.Delete("/{entityID}", s.handleRemove(codec))
		})
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"devices":   s.sessions.Len(),
		"connected": s.sessions.Connected(),
	})
}
