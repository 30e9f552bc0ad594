package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notewave", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notewave", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PresenceJoins = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "notewave", Name: "presence_joins_total", Help: "Number of room joins processed by the presence hub."},
	)
	PresenceLeaves = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "notewave", Name: "presence_leaves_total", Help: "Number of room leaves (explicit or disconnect) processed by the presence hub."},
	)
	PresenceActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "notewave", Name: "presence_active_participants", Help: "Participants currently attached to any room."},
	)
	BroadcastDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notewave", Name: "broadcast_delivered_total", Help: "Realtime events delivered to peers, by event kind."},
		[]string{"event"},
	)
	BroadcastDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notewave", Name: "broadcast_dropped_total", Help: "Realtime events dropped because a peer could not accept them, by event kind."},
		[]string{"event"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PresenceJoins)
	reg.MustRegister(PresenceLeaves)
	reg.MustRegister(PresenceActive)
	reg.MustRegister(BroadcastDelivered)
	reg.MustRegister(BroadcastDropped)
}
