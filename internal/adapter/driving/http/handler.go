package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Wyydra/inplay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/Wyydra/inplay/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

const LivenessMessage = "inplay relay is live"

// Options tune the websocket transport.
type Options struct {
	AllowedOrigins []string
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

type Services struct {
	Presence  *service.PresenceService
	Chat      *service.ChatService
	Signal    *service.SignalService
	Lifecycle *service.LifecycleService
	Store     *service.RoomStore
}

type Handler struct {
	Services
	Hub     *ws.Hub
	Metrics port.Metrics

	gatherer prometheus.Gatherer
	opts     Options
	cors     *cors.Cors
	upgrader websocket.Upgrader
	handlers map[string]eventHandler
}

// NewHandler wires the transport to the services. gatherer may be nil, in
// which case /metrics is not served.
func NewHandler(svc Services, hub *ws.Hub, metrics port.Metrics, gatherer prometheus.Gatherer, opts Options) *Handler {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 << 10
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}

	h := &Handler{
		Services: svc,
		Hub:      hub,
		Metrics:  metrics,
		gatherer: gatherer,
		opts:     opts,
		cors: cors.New(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowCredentials: true,
		}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	h.handlers = h.eventHandlers()
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	// non-browser clients do not send an Origin
	if r.Header.Get("Origin") == "" {
		return true
	}
	return h.cors.OriginAllowed(r)
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(h.cors.Handler)

	r.Get("/ws", h.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("HTTP request")
		}))

		r.Get("/", h.live)
		r.Get("/healthz", h.health)
		r.Get("/stats", h.stats)
		r.Get("/rooms", h.rooms)
		if h.gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
		}
	})

	return r
}

func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(LivenessMessage))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type statsResponse struct {
	Rooms       int `json:"rooms"`
	Members     int `json:"members"`
	Connections int `json:"connections"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	rooms, members := h.Store.Stats()
	writeJSON(w, statsResponse{
		Rooms:       rooms,
		Members:     members,
		Connections: h.Hub.Len(),
	})
}

// roomSummary leaves out connection ids, which would be enough to address
// ice-candidate messages to any member.
type roomSummary struct {
	RoomID             domain.RoomID `json:"roomId"`
	PresenterConnected bool          `json:"presenterConnected"`
	Viewers            int           `json:"viewers"`
	CreatedAt          time.Time     `json:"createdAt"`
}

type roomsResponse struct {
	Rooms []roomSummary `json:"rooms"`
}

func (h *Handler) rooms(w http.ResponseWriter, r *http.Request) {
	snapshots := h.Store.List()
	rooms := make([]roomSummary, 0, len(snapshots))
	for _, s := range snapshots {
		rooms = append(rooms, roomSummary{
			RoomID:             s.ID,
			PresenterConnected: s.Presenter != "",
			Viewers:            len(s.Viewers),
			CreatedAt:          s.CreatedAt,
		})
	}
	writeJSON(w, roomsResponse{Rooms: rooms})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
