package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vtree/pkg/engine"
	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/render"
)

const (
	writeTimeout    = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address used by Run.
	Addr string

	// AllowedOrigins are websocket origins accepted in addition to the
	// request's own host.
	AllowedOrigins []string

	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Title is the /tree page title. Defaults to "vtree".
	Title string

	Logger *slog.Logger
}

// Server exposes an engine and its hub over HTTP.
type Server struct {
	eng      *engine.Engine
	hub      *Hub
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewServer creates a server and registers hub as an observer of eng.
func NewServer(eng *engine.Engine, hub *Hub, config Config) *Server {
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.Title == "" {
		config.Title = "vtree"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		eng:      eng,
		hub:      hub,
		config:   config,
		renderer: render.NewRenderer(render.RendererConfig{Pretty: true, EventMarkers: true}),
		logger:   config.Logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	eng.Observe(hub)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/tree", s.handleTree)
	r.Get("/cycles", s.handleCycles)
	r.Get("/cycles/{seq}", s.handleFrame)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)
	s.router = r
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("inspector stopped")
	return nil
}

// checkOrigin accepts requests without an Origin, same-host origins and
// configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type health struct {
	Status  string `json:"status"`
	Seq     uint64 `json:"seq"`
	Mounted bool   `json:"mounted"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var h health
	s.eng.Read(func(st engine.State) error {
		h.Seq, h.Mounted = st.Seq, st.View != nil
		h.Status = "ok"
		if st.Stale {
			h.Status = "stale"
		}
		return nil
	})
	h.Clients = s.hub.Clients()
	status := http.StatusOK
	if h.Status == "stale" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	dump := r.URL.Query().Get("format") == "dump"
	var buf bytes.Buffer
	err := s.eng.Read(func(st engine.State) error {
		if st.View == nil {
			return errNotMounted
		}
		if root, ok := st.Root.(*memhost.Node); ok {
			if dump {
				buf.WriteString(memhost.Dump(root))
				return nil
			}
			return s.renderer.RenderPage(&buf, render.PageData{Title: s.config.Title, Body: root})
		}
		// Other hosts: serialise the view, which the host tree matches.
		return s.renderer.RenderView(&buf, st.View)
	})
	if errors.Is(err, errNotMounted) {
		http.Error(w, "nothing mounted", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("inspect: render tree", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if dump {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.Write(buf.Bytes())
}

var errNotMounted = errors.New("inspect: nothing mounted")

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "after must be a sequence number", http.StatusBadRequest)
			return
		}
		after = n
	}
	entries := s.hub.History().Since(after)
	if entries == nil {
		entries = []*Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		http.Error(w, "invalid sequence number", http.StatusBadRequest)
		return
	}
	e, ok := s.hub.History().Get(seq)
	if !ok {
		http.Error(w, "cycle not in history", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(e.Frame)
}

// handleWS streams frames to one client: a mount frame for the current
// view, then every later cycle.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("inspect: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Register before taking the snapshot so no cycle falls between them.
	// Frames at or below the snapshot's seq are skipped by the writer.
	c := s.hub.register(uuid.NewString())
	defer s.hub.unregister(c.id)

	var snapSeq uint64
	var snap []byte
	s.eng.Read(func(st engine.State) error {
		snapSeq = st.Seq
		if st.View != nil {
			snap = protocol.EncodeFrame(protocol.MountFrame(st.Seq, st.View))
		}
		return nil
	})
	if snap != nil {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, snap); err != nil {
			return
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(ctx, conn, c, snapSeq)
	}()

	s.readPump(conn)
	cancel()
	s.hub.unregister(c.id)
	<-done
}

// readPump discards client messages and returns when the connection closes.
func (s *Server) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Debug("inspect: read error", "error", err)
			}
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, c *client, after uint64) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case out, ok := <-c.send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			if out.seq <= after {
				continue
			}
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, out.data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
