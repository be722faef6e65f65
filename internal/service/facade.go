package service

import (
	"context"

	"github.com/nerrad567/gray-logic-switchd/internal/correlation"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
)

// GroupService is the caller API for group operations.
type GroupService struct{ d *Dispatcher }

// NewGroupService wraps d.
func NewGroupService(d *Dispatcher) GroupService { return GroupService{d: d} }

func (s GroupService) Add(ctx context.Context, g *model.Group) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindGroup, model.Add(g))
}

func (s GroupService) Update(ctx context.Context, original, updated *model.Group) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindGroup, model.Update(original, updated))
}

func (s GroupService) Remove(ctx context.Context, g *model.Group) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindGroup, model.Remove(g))
}

// FlowService is the caller API for flow operations.
type FlowService struct{ d *Dispatcher }

// NewFlowService wraps d.
func NewFlowService(d *Dispatcher) FlowService { return FlowService{d: d} }

func (s FlowService) Add(ctx context.Context, f *model.Flow) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindFlow, model.Add(f))
}

func (s FlowService) Update(ctx context.Context, original, updated *model.Flow) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindFlow, model.Update(original, updated))
}

func (s FlowService) Remove(ctx context.Context, f *model.Flow) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindFlow, model.Remove(f))
}

// MeterService is the caller API for meter operations.
type MeterService struct{ d *Dispatcher }

// NewMeterService wraps d.
func NewMeterService(d *Dispatcher) MeterService { return MeterService{d: d} }

func (s MeterService) Add(ctx context.Context, m *model.Meter) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindMeter, model.Add(m))
}

func (s MeterService) Update(ctx context.Context, original, updated *model.Meter) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindMeter, model.Update(original, updated))
}

func (s MeterService) Remove(ctx context.Context, m *model.Meter) (*correlation.Future[Result], error) {
	return s.d.Dispatch(ctx, model.KindMeter, model.Remove(m))
}
