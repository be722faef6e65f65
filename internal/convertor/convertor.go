package convertor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

// Convertor turns a canonical request into one protocol message for a
// negotiated version.
type Convertor interface {
	Convert(req model.Request, version openflow.Version) (openflow.Message, error)
}

// Func converts one request of a single entity kind.
type Func func(req model.Request) (openflow.Message, error)

type key struct {
	version openflow.Version
	kind    model.Kind
}

// Registry is a Convertor backed by functions keyed by version and kind.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[key]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[key]Func)}
}

// Default returns a registry for every supported protocol version.
func Default() *Registry {
	r := NewRegistry()
	for _, v := range []openflow.Version{openflow.Version13, openflow.Version14, openflow.Version15} {
		r.Register(v, model.KindGroup, groupFunc(v))
		r.Register(v, model.KindFlow, flowFunc(v))
		r.Register(v, model.KindMeter, meterFunc(v))
	}
	return r
}

// Register installs fn for (version, kind), replacing any previous one.
func (r *Registry) Register(version openflow.Version, kind model.Kind, fn Func) {
	r.mu.Lock()
	r.funcs[key{version, kind}] = fn
	r.mu.Unlock()
}

// Supports reports whether (version, kind) has a conversion.
func (r *Registry) Supports(version openflow.Version, kind model.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[key{version, kind}]
	return ok
}

// Versions lists the versions with at least one conversion, ascending.
func (r *Registry) Versions() []openflow.Version {
	r.mu.RLock()
	seen := make(map[openflow.Version]struct{})
	for k := range r.funcs {
		seen[k.version] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]openflow.Version, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Convert implements Convertor.
func (r *Registry) Convert(req model.Request, version openflow.Version) (openflow.Message, error) {
	if req.Entity == nil {
		return nil, fmt.Errorf("%w: request has no entity", ErrUnsupported)
	}
	kind := req.Entity.Kind()

	r.mu.RLock()
	fn, ok := r.funcs[key{version, kind}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s for version %s", ErrUnsupported, kind, version)
	}

	msg, err := fn(req)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: no message for %s %s", ErrUnsupported, req.Op, kind)
	}
	return msg, nil
}
