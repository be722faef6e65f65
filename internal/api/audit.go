package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-switchd/internal/audit"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// recordAudit journals one operation and its result. Failures are logged,
// never surfaced to the caller.
func (s *Server) recordAudit(ctx context.Context, deviceID, clientID string, kind model.Kind, req model.Request, res service.Result) {
	if s.audit == nil {
		return
	}

	entry := &audit.AuditLog{
		DeviceID:   deviceID,
		Action:     string(req.Op),
		EntityType: string(kind),
		ClientID:   clientID,
		Source:     audit.SourceAPI,
		Success:    res.Success,
	}
	if req.Entity != nil {
		entry.EntityID = req.Entity.EntityID()
	}

	details := map[string]any{}
	if res.Payload != nil {
		details["xid"] = res.Payload.TransactionID
		details["path"] = res.Payload.Path
	}
	if len(res.Errors) > 0 {
		details["errors"] = res.FormatErrors()
	}
	if res.Err != nil {
		details["error"] = res.Err.Error()
	}
	if len(details) > 0 {
		entry.Details = details
	}

	if err := s.audit.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("recording audit log failed", "device_id", deviceID, "action", entry.Action, "error", err)
	}
}

// handleListAudit returns journaled operations, newest first. Query
// parameters: device_id, action, kind, entity_id, client_id, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		DeviceID:   q.Get("device_id"),
		Action:     q.Get("action"),
		EntityType: q.Get("kind"),
		EntityID:   q.Get("entity_id"),
		ClientID:   q.Get("client_id"),
	}
	if filter.EntityType != "" && codecs[model.Kind(filter.EntityType)] == nil {
		writeBadRequest(w, "unknown kind: "+filter.EntityType)
		return
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid "+name+": "+v)
			return
		}
		*dst = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit logs failed", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
