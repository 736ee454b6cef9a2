package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	gwebsocket "github.com/gorilla/websocket" // Alias to avoid name conflict

	"nilm-live/internal/data"
	"nilm-live/internal/observability"
	"nilm-live/internal/publish"
	"nilm-live/internal/simulator"
	"nilm-live/internal/storage"
	"nilm-live/internal/websocket"
)

const publishTimeout = 2 * time.Second

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dashboard may be served elsewhere
}

// Options configures an APIHandler. Zero values fall back to defaults.
type Options struct {
	Interval   time.Duration
	Appliances []data.Appliance
	// NewSource yields the randomness for one connection.
	NewSource  func() simulator.Source
	WebDir     string
	Publisher  publish.Publisher
	Metrics    *observability.Metrics
	Store      *storage.MemoryStore
	StreamPath string
}

type APIHandler struct {
	hub        *websocket.Hub
	store      *storage.MemoryStore
	metrics    *observability.Metrics
	publisher  publish.Publisher
	interval   time.Duration
	appliances []data.Appliance
	newSource  func() simulator.Source
	webDir     string
	streamPath string
	log        *slog.Logger
}

func NewAPIHandler(hub *websocket.Hub, opts Options, log *slog.Logger) (*APIHandler, error) {
	h := &APIHandler{
		hub:        hub,
		store:      opts.Store,
		metrics:    opts.Metrics,
		publisher:  opts.Publisher,
		interval:   opts.Interval,
		appliances: opts.Appliances,
		newSource:  opts.NewSource,
		webDir:     opts.WebDir,
		streamPath: opts.StreamPath,
		log:        log,
	}
	if h.interval <= 0 {
		h.interval = simulator.DefaultInterval
	}
	if len(h.appliances) == 0 {
		h.appliances = data.DefaultAppliances()
	}
	if h.newSource == nil {
		h.newSource = func() simulator.Source { return simulator.NewSource(0) }
	}
	if h.store == nil {
		h.store = storage.NewMemoryStore(0)
	}
	if h.metrics == nil {
		h.metrics = observability.NewMetrics()
	}
	if h.publisher == nil {
		h.publisher = publish.Nop{}
	}
	if h.streamPath == "" {
		h.streamPath = "/ws"
	}
	// fail at startup rather than on the first connection
	if _, err := simulator.NewGenerator(h.appliances, h.newSource()); err != nil {
		return nil, err
	}
	return h, nil
}

// HandleWebSocket upgrades the connection and streams events until the
// client goes away.
func (h *APIHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}

	client := websocket.NewClient(conn, h.log)
	if !h.hub.Register(client) {
		client.Close(gwebsocket.CloseTryAgainLater, "server shutting down")
		return
	}
	log := h.log.With(slog.String("session", client.ID))
	log.Info("WebSocket client connected", slog.String("remote", client.RemoteAddr))
	h.metrics.SessionStarted()

	client.OnSent = func(ev data.Event) {
		h.metrics.EventSent(ev.PredictedAppliance)
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.publisher.Publish(ctx, client.ID, ev); err != nil {
			h.metrics.PublishFailed(publish.NameOf(h.publisher))
			log.Warn("event tap failed", slog.Uint64("event_id", ev.EventID), slog.Any("err", err))
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.ReadPump(cancel)
	go client.PingPump(ctx)

	sent, reason := h.stream(ctx, client)

	h.hub.Unregister(client)
	client.Close(gwebsocket.CloseNormalClosure, "")
	ended := time.Now()
	h.metrics.SessionEnded(ended.Sub(client.ConnectedAt))
	h.store.Add(data.Session{
		ID:             client.ID,
		RemoteAddr:     client.RemoteAddr,
		ConnectedAt:    client.ConnectedAt,
		DisconnectedAt: ended,
		EventsSent:     sent,
		Reason:         reason,
	})
	log.Info("WebSocket client disconnected", slog.Uint64("events_sent", sent), slog.String("reason", reason))
}

// stream runs the event loop on a fresh generator, so ids restart at 0.
func (h *APIHandler) stream(ctx context.Context, client *websocket.Client) (uint64, string) {
	gen, err := simulator.NewGenerator(h.appliances, h.newSource())
	if err != nil {
		h.log.Error("generator setup failed", slog.Any("err", err))
		return 0, "generator error"
	}
	sent, err := simulator.Run(ctx, gen, client, h.interval)
	switch {
	case errors.Is(err, context.Canceled):
		return sent, "peer closed"
	case err != nil:
		return sent, "write failed"
	default:
		return sent, "done"
	}
}

// ServeIndex serves the dashboard page
func (h *APIHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.webDir, "index.html"))
}

// HandleHealth reports liveness
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type statusResponse struct {
	Status         string           `json:"status"`
	ActiveSessions int              `json:"active_sessions"`
	StreamPath     string           `json:"stream_path"`
	IntervalMillis int64            `json:"interval_ms"`
	Appliances     []data.Appliance `json:"appliances"`
	Timestamp      time.Time        `json:"timestamp"`
}

// HandleStatus describes the running simulator
func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         "running",
		ActiveSessions: h.hub.Count(),
		StreamPath:     h.streamPath,
		IntervalMillis: h.interval.Milliseconds(),
		Appliances:     h.appliances,
		Timestamp:      time.Now().UTC(),
	})
}

type sessionsResponse struct {
	Active []websocket.SessionInfo `json:"active"`
	Recent []data.Session          `json:"recent"`
}

// HandleSessions lists connected and recently finished sessions
func (h *APIHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionsResponse{
		Active: h.hub.Active(),
		Recent: h.store.GetAll(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
