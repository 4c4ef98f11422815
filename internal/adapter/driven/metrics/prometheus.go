package metrics

import (
	"time"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/Wyydra/inplay/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inplay"

var _ port.Metrics = (*Prometheus)(nil)

// Prometheus implements port.Metrics.
type Prometheus struct {
	roomCurrent    prometheus.Gauge
	roomDuration   prometheus.Histogram
	memberCurrent  *prometheus.GaugeVec
	chatMessages   prometheus.Counter
	signalsRelayed *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	dropped        *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		roomCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "room",
			Name:      "total",
			Help:      "Rooms currently open.",
		}),
		roomDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "room",
			Name:      "duration_seconds",
			Help:      "Lifetime of closed rooms.",
			Buckets: []float64{
				5, 10, 60, 5 * 60, 10 * 60, 30 * 60, 60 * 60, 2 * 60 * 60, 5 * 60 * 60, 10 * 60 * 60,
			},
		}),
		memberCurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "member",
			Name:      "total",
			Help:      "Room members by role.",
		}, []string{"role"}),
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages appended to room logs.",
		}),
		signalsRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "relayed_total",
			Help:      "Negotiation messages relayed, by kind.",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "deliveries_total",
			Help:      "Connections a negotiation message was handed to, by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "dropped_total",
			Help:      "Inbound events dropped without effect, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		p.roomCurrent,
		p.roomDuration,
		p.memberCurrent,
		p.chatMessages,
		p.signalsRelayed,
		p.deliveries,
		p.dropped,
	)
	return p
}

func (p *Prometheus) RoomOpened() {
	p.roomCurrent.Inc()
}

func (p *Prometheus) RoomClosed(createdAt time.Time) {
	if !createdAt.IsZero() {
		p.roomDuration.Observe(time.Since(createdAt).Seconds())
	}
	p.roomCurrent.Dec()
}

func (p *Prometheus) MemberJoined(role domain.Role) {
	p.memberCurrent.WithLabelValues(role.String()).Inc()
}

func (p *Prometheus) MemberLeft(role domain.Role) {
	p.memberCurrent.WithLabelValues(role.String()).Dec()
}

func (p *Prometheus) ChatPosted() {
	p.chatMessages.Inc()
}

func (p *Prometheus) SignalRelayed(kind domain.SignalType, deliveries int) {
	p.signalsRelayed.WithLabelValues(string(kind)).Inc()
	p.deliveries.WithLabelValues(string(kind)).Add(float64(deliveries))
}

func (p *Prometheus) Dropped(reason string) {
	p.dropped.WithLabelValues(reason).Inc()
}
