package inspect

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/vtree/pkg/engine"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// HubConfig configures a Hub.
type HubConfig struct {
	// History is the number of cycles kept. Defaults to 200.
	History int

	// Rate is the number of frames per second written to each client.
	// Zero means unlimited.
	Rate float64

	// Burst is the per-client burst. Defaults to 1 when Rate is set.
	Burst int

	// SendBuffer is the number of frames queued per client before it is
	// dropped as too slow. Defaults to 256.
	SendBuffer int
}

// Hub records cycles and fans their frames out to clients. It implements
// engine.Observer.
type Hub struct {
	config  HubConfig
	history *History
	logger  *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

type outFrame struct {
	seq  uint64
	data []byte
}

type client struct {
	id      string
	send    chan outFrame
	limiter *rate.Limiter
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub. A nil logger uses slog.Default().
func NewHub(config HubConfig, logger *slog.Logger) *Hub {
	if config.History <= 0 {
		config.History = 200
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}
	if config.Rate > 0 && config.Burst <= 0 {
		config.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		config:  config,
		history: NewHistory(config.History),
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// History returns the hub's cycle history.
func (h *Hub) History() *History {
	return h.history
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Observe encodes c, records it and broadcasts the frame.
func (h *Hub) Observe(c engine.Cycle) {
	var f *protocol.Frame
	switch {
	case c.Err != nil:
		f = protocol.ErrorFrame(c.Seq, c.Err)
	case c.Op == engine.OpMount, c.Op == engine.OpAdopt:
		f = protocol.MountFrame(c.Seq, c.View)
	default:
		f = protocol.PatchesFrame(c.Seq, c.Patches)
	}
	data := protocol.EncodeFrame(f)

	e := &Entry{
		Seq:      c.Seq,
		Op:       string(c.Op),
		Patches:  vdom.Count(c.Patches),
		Duration: c.Duration,
		At:       time.Now(),
		Frame:    data,
	}
	if len(c.Patches) > 0 {
		e.Kinds = make(map[string]int)
		for k, n := range vdom.Kinds(c.Patches) {
			e.Kinds[k.String()] = n
		}
	}
	if c.Err != nil {
		e.Error = c.Err.Error()
	}
	h.history.Add(e)
	h.broadcast(outFrame{seq: c.Seq, data: data})
}

func (h *Hub) broadcast(out outFrame) {
	var slow []string
	h.mu.RLock()
	for id, c := range h.clients {
		select {
		case c.send <- out:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.logger.Warn("inspect: dropping slow client", "client", id, "seq", out.seq)
		h.unregister(id)
	}
}

func (h *Hub) register(id string) *client {
	c := &client{
		id:      id,
		send:    make(chan outFrame, h.config.SendBuffer),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if h.config.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(h.config.Rate), h.config.Burst)
	}

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	h.logger.Debug("inspect: client connected", "client", id)
	return c
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	if ok {
		c.close()
	}
	h.mu.Unlock()
	if ok {
		h.logger.Debug("inspect: client disconnected", "client", id)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}
