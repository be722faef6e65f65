package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/session"
)

// lookupSession resolves the {deviceID} URL parameter, writing a 404 on miss.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	deviceID := chi.URLParam(r, "deviceID")
	sess, err := s.sessions.Get(deviceID)
	if err != nil {
		writeNotFound(w, "device not found: "+deviceID)
		return nil, false
	}
	return sess, true
}

// handleListDevices returns the status of every device session.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	sessions := s.sessions.List()
	statuses := make([]session.Status, 0, len(sessions))
	for _, sess := range sessions {
		statuses = append(statuses, sess.Status())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": statuses,
		"count":   len(statuses),
	})
}

// handleGetDevice returns one device session's status.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Status())
}

// handleListRegistry returns the registry entries of one kind on a device.
func (s *Server) handleListRegistry(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}

		reg := sess.Registry(kind)
		if reg == nil {
			writeNotFound(w, "no registry for kind "+string(kind))
			return
		}

		entries := reg.Entries()
		writeJSON(w, http.StatusOK, map[string]any{
			"device_id": sess.ID(),
			"kind":      kind,
			"entries":   entries,
			"count":     len(entries),
		})
	}
}

// handleListMirror returns the persisted state tree for a device,
// optionally filtered with ?kind=.
func (s *Server) handleListMirror(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		writeNotFound(w, "state mirror is disabled")
		return
	}

	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	kind := model.Kind(r.URL.Query().Get("kind"))
	if kind != "" && codecs[kind] == nil {
		writeBadRequest(w, "unknown kind: "+string(kind))
		return
	}

	entities, err := s.mirror.List(r.Context(), sess.ID(), kind)
	if err != nil {
		s.logger.Error("listing mirror entities failed", "device_id", sess.ID(), "error", err)
		writeInternalError(w, "failed to list mirrored entities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": sess.ID(),
		"entities":  entities,
		"count":     len(entities),
	})
}
