package service

import (
	"fmt"

	"github.com/nerrad567/gray-logic-switchd/internal/mirror"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/registry"
)

// Registries holds one registry per entity kind for a device session.
type Registries map[model.Kind]*registry.Registry

// NewRegistries creates an empty registry for every kind.
func NewRegistries(deviceID string, logger registry.Logger) Registries {
	rs := make(Registries, len(model.AllKinds()))
	for _, kind := range model.AllKinds() {
		r := registry.New(deviceID, string(kind))
		if logger != nil {
			r.SetLogger(logger)
		}
		rs[kind] = r
	}
	return rs
}

// Reconciler applies acknowledged operations to the registries and emits
// the matching mirror events. It is only called with successful outcomes.
type Reconciler struct {
	deviceID   string
	registries Registries
	sink       *mirror.Sink
}

// NewReconciler creates a reconciler. sink may be nil, which disables
// mirroring.
func NewReconciler(deviceID string, registries Registries, sink *mirror.Sink) *Reconciler {
	return &Reconciler{deviceID: deviceID, registries: registries, sink: sink}
}

// Reconcile folds an acknowledged request into the registry.
//
// It returns ErrPolicyConflict, with nothing emitted, when an add or update
// targets an id that is pending removal.
func (r *Reconciler) Reconcile(req model.Request) error {
	kind := req.Entity.Kind()
	reg, ok := r.registries[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoService, kind)
	}
	id := req.Entity.EntityID()

	switch req.Op {
	case model.OpAdd:
		if err := reg.MarkPresent(id); err != nil {
			return fmt.Errorf("%s %s: %w", kind, id, err)
		}
		r.emit(mirror.Added, req.Entity)

	case model.OpUpdate:
		if err := reg.MarkPresent(id); err != nil {
			return fmt.Errorf("%s %s: %w", kind, id, err)
		}
		if req.Original != nil && req.Original.EntityID() != id {
			r.emit(mirror.Removed, req.Original)
		}
		r.emit(mirror.Added, req.Entity)

	case model.OpRemove:
		reg.ConfirmRemoved(id)
		r.emit(mirror.Removed, req.Entity)

	default:
		return fmt.Errorf("%w: unknown op %q", model.ErrInvalidRequest, req.Op)
	}
	return nil
}

func (r *Reconciler) emit(kind mirror.EventKind, entity model.Entity) {
	if r.sink == nil || !r.sink.Registered() {
		return
	}
	r.sink.Emit(mirror.NewEvent(kind, r.deviceID, entity))
}
