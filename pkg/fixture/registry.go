package fixture

import (
	"sync"

	"github.com/vango-dev/vtree/pkg/host"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Tagged is the message produced by a default mapper.
type Tagged struct {
	Tag string
	Msg any
}

// Message is the message produced by a default decoder.
type Message struct {
	Decoder string
	Event   string
	Data    map[string]any
}

// Registry resolves names to mappers and decoders. Unknown names get a
// default implementation, created once and reused.
type Registry struct {
	mu       sync.Mutex
	mappers  map[string]*vdom.Mapper
	decoders map[string]*vdom.Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mappers:  make(map[string]*vdom.Mapper),
		decoders: make(map[string]*vdom.Decoder),
	}
}

// RegisterMapper installs m under its name.
func (r *Registry) RegisterMapper(m *vdom.Mapper) {
	r.mu.Lock()
	r.mappers[m.Name()] = m
	r.mu.Unlock()
}

// RegisterDecoder installs d under its name.
func (r *Registry) RegisterDecoder(d *vdom.Decoder) {
	r.mu.Lock()
	r.decoders[d.Name()] = d
	r.mu.Unlock()
}

// Mapper returns the mapper registered as name. The default wraps every
// message in Tagged{Tag: name}.
func (r *Registry) Mapper(name string) *vdom.Mapper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappers[name]; ok {
		return m
	}
	m := vdom.NewMapper(name, func(msg any) any {
		return Tagged{Tag: name, Msg: msg}
	})
	r.mappers[name] = m
	return m
}

// Decoder returns the decoder registered as name. The default produces a
// Message describing the event.
func (r *Registry) Decoder(name string) *vdom.Decoder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.decoders[name]; ok {
		return d
	}
	d := vdom.NewDecoder(name, func(ev *host.Event) (vdom.Decoded, error) {
		return vdom.Decoded{Message: Message{Decoder: name, Event: ev.Type, Data: ev.Data}}, nil
	})
	r.decoders[name] = d
	return d
}
