package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
	"github.com/nerrad567/gray-logic-switchd/internal/session"
)

// entityCodec turns request bodies and URL ids into entities of one kind.
type entityCodec struct {
	kind   model.Kind
	decode func(data []byte) (model.Entity, error)
	fromID func(id string) (model.Entity, error)
}

var codecs = map[model.Kind]*entityCodec{
	model.KindGroup: {
		kind: model.KindGroup,
		decode: func(data []byte) (model.Entity, error) {
			var g model.Group
			return &g, decodeStrict(data, &g)
		},
		fromID: func(id string) (model.Entity, error) {
			n, err := parseUint32(id)
			return &model.Group{ID: n}, err
		},
	},
	model.KindFlow: {
		kind: model.KindFlow,
		decode: func(data []byte) (model.Entity, error) {
			var f model.Flow
			return &f, decodeStrict(data, &f)
		},
		fromID: func(id string) (model.Entity, error) {
			return &model.Flow{ID: id}, nil
		},
	},
	model.KindMeter: {
		kind: model.KindMeter,
		decode: func(data []byte) (model.Entity, error) {
			var m model.Meter
			return &m, decodeStrict(data, &m)
		},
		fromID: func(id string) (model.Entity, error) {
			n, err := parseUint32(id)
			return &model.Meter{ID: n}, err
		},
	},
}

// updateRequest is the body of PUT /devices/{deviceID}/{kind}s/{entityID}.
// Original defaults to an id-only entity built from the URL.
type updateRequest struct {
	Original json.RawMessage `json:"original,omitempty"`
	Entity   json.RawMessage `json:"entity"`
}

// handleAdd installs a new entity on the device.
func (s *Server) handleAdd(codec *entityCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, "failed to read body")
			return
		}
		entity, err := codec.decode(body)
		if err != nil {
			writeBadRequest(w, "invalid "+string(codec.kind)+": "+err.Error())
			return
		}

		s.execute(w, r, sess, codec.kind, model.Add(entity))
	}
}

// handleUpdate replaces the entity named in the URL.
func (s *Server) handleUpdate(codec *entityCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}

		entityID := chi.URLParam(r, "entityID")
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
		if len(req.Entity) == 0 {
			writeBadRequest(w, "entity is required")
			return
		}

		updated, err := codec.decode(req.Entity)
		if err != nil {
			writeBadRequest(w, "invalid "+string(codec.kind)+": "+err.Error())
			return
		}

		var original model.Entity
		if len(req.Original) > 0 {
			original, err = codec.decode(req.Original)
			if err != nil {
				writeBadRequest(w, "invalid original "+string(codec.kind)+": "+err.Error())
				return
			}
			if original.EntityID() != entityID {
				writeBadRequest(w, fmt.Sprintf("original id %q does not match URL id %q", original.EntityID(), entityID))
				return
			}
		} else if original, err = codec.fromID(entityID); err != nil {
			writeBadRequest(w, "invalid "+string(codec.kind)+" id: "+entityID)
			return
		}

		s.execute(w, r, sess, codec.kind, model.Update(original, updated))
	}
}

// handleRemove deletes the entity named in the URL.
func (s *Server) handleRemove(codec *entityCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}

		entityID := chi.URLParam(r, "entityID")
		entity, err := codec.fromID(entityID)
		if err != nil {
			writeBadRequest(w, "invalid "+string(codec.kind)+" id: "+entityID)
			return
		}

		s.execute(w, r, sess, codec.kind, model.Remove(entity))
	}
}

// execute dispatches req and writes its result once the device answers.
// If the caller goes away first the exchange still completes in the
// background and is journaled then; only the response is abandoned.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, sess *session.Session, kind model.Kind, req model.Request) {
	clientID := ""
	if claims := claimsFromContext(r.Context()); claims != nil {
		clientID = claims.Subject
	}

	fut, err := sess.Dispatcher().Dispatch(r.Context(), kind, req)
	if err != nil {
		s.recordAudit(r.Context(), sess.ID(), clientID, kind, req, service.Result{Err: err})
		writeDispatchError(w, err)
		return
	}

	res, err := fut.Wait(r.Context())
	if err != nil {
		fut.OnComplete(func(late service.Result) {
			go s.recordAudit(context.Background(), sess.ID(), clientID, kind, req, late)
		})
		writeError(w, http.StatusGatewayTimeout, ErrCodeUnavailable, "request cancelled before the device answered")
		return
	}
	s.recordAudit(r.Context(), sess.ID(), clientID, kind, req, res)
	writeJSON(w, resultStatus(res), res)
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
