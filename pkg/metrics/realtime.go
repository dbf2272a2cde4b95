package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics tracks websocket connections and broadcasts.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	broadcasts  prometheus.Counter
	dropped     prometheus.Counter
}

// NewRealtimeMetrics registers the realtime hub metrics.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Authenticated websocket connections on this instance.",
	})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_broadcasts_total",
		Help: "Order status broadcasts delivered to the local registry.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_dropped_connections_total",
		Help: "Connections dropped after a failed write or missed pong.",
	})
	reg.MustRegister(connections, broadcasts, dropped)
	return &RealtimeMetrics{connections: connections, broadcasts: broadcasts, dropped: dropped}
}

func (r *RealtimeMetrics) SetConnections(n int) {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Set(float64(n))
}

func (r *RealtimeMetrics) IncBroadcast() {
	if r == nil || r.broadcasts == nil {
		return
	}
	r.broadcasts.Inc()
}

func (r *RealtimeMetrics) IncDropped() {
	if r == nil || r.dropped == nil {
		return
	}
	r.dropped.Inc()
}
