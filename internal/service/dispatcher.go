package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-switchd/internal/convertor"
	"github.com/nerrad567/gray-logic-switchd/internal/correlation"
	"github.com/nerrad567/gray-logic-switchd/internal/mirror"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

// Config wires a dispatcher to one device session.
type Config struct {
	DeviceID    string
	Pool        *correlation.Pool[openflow.Message]
	Registries  Registries
	Device      Device
	Transmitter Transmitter
	Convertor   convertor.Convertor

	// Mirror receives acknowledged changes. Nil disables mirroring.
	Mirror *mirror.Sink

	// Recorder receives every finished exchange. Optional.
	Recorder ExchangeRecorder

	// Logger is optional.
	Logger Logger
}

type route struct {
	kind model.Kind
	path Path
}

// Dispatcher routes each call to the operation service for its entity
// kind and the path the device currently supports.
type Dispatcher struct {
	device     Device
	registries Registries
	services   map[route]*OperationService
	recorder   ExchangeRecorder
	deviceID   string
}

// NewDispatcher builds the strategy table for every kind and path.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	switch {
	case cfg.Pool == nil:
		return nil, errors.New("service: pool is required")
	case cfg.Device == nil:
		return nil, errors.New("service: device is required")
	case cfg.Transmitter == nil:
		return nil, errors.New("service: transmitter is required")
	case cfg.Convertor == nil:
		return nil, errors.New("service: convertor is required")
	}
	if cfg.Registries == nil {
		cfg.Registries = NewRegistries(cfg.DeviceID, nil)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	reconciler := NewReconciler(cfg.DeviceID, cfg.Registries, cfg.Mirror)
	d := &Dispatcher{
		device:     cfg.Device,
		registries: cfg.Registries,
		services:   make(map[route]*OperationService),
		recorder:   cfg.Recorder,
		deviceID:   cfg.DeviceID,
	}

	for kind, reg := range cfg.Registries {
		builders := map[Path]builder{
			MessagePath:    messageBuilder(kind),
			ConversionPath: conversionBuilder(cfg.Convertor),
		}
		for path, build := range builders {
			d.services[route{kind, path}] = &OperationService{
				deviceID:    cfg.DeviceID,
				kind:        kind,
				path:        path,
				build:       build,
				pool:        cfg.Pool,
				registry:    reg,
				device:      cfg.Device,
				transmitter: cfg.Transmitter,
				reconciler:  reconciler,
				recorder:    cfg.Recorder,
				logger:      cfg.Logger,
			}
		}
	}
	return d, nil
}

// Service returns the operation service for kind and path.
func (d *Dispatcher) Service(kind model.Kind, path Path) (*OperationService, bool) {
	s, ok := d.services[route{kind, path}]
	return s, ok
}

// Dispatch runs req against the device.
//
// The returned error is only set for a malformed request or an unknown
// kind. Every other outcome, including an add for an id still pending
// removal, is delivered through the future.
func (d *Dispatcher) Dispatch(ctx context.Context, kind model.Kind, req model.Request) (*correlation.Future[Result], error) {
	if err := model.ValidateRequest(kind, req); err != nil {
		return nil, err
	}

	_, caps := d.device.Negotiated()
	path := SelectPath(caps)
	svc, ok := d.services[route{kind, path}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoService, kind)
	}

	id := req.Entity.EntityID()
	if req.Op != model.OpRemove && d.registries[kind].IsPendingRemoval(id) {
		res := failure(fmt.Errorf("%s %s: %w", kind, id, ErrPolicyConflict))
		d.recorder.RecordExchange(Exchange{
			DeviceID: d.deviceID, Kind: kind, Op: req.Op, Path: path, Outcome: OutcomeLabel(res),
		})
		return correlation.Completed(res), nil
	}

	return svc.Handle(ctx, req), nil
}

// Registries returns the session registries.
func (d *Dispatcher) Registries() Registries {
	return d.registries
}
