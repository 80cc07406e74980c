package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_connections",
			Help: "Number of live websocket connections.",
		},
	)
	liveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_live_rooms",
			Help: "Number of rooms with at least one member.",
		},
	)
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Total number of events delivered to client queues.",
		},
		[]string{"event"},
	)
	deliveryMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_delivery_misses_total",
			Help: "Room members without a live connection at fan-out time.",
		},
	)
	queueDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_queue_drops_total",
			Help: "Events dropped because a client queue was full or closed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		activeConnections,
		liveRooms,
		deliveriesTotal,
		deliveryMissesTotal,
		queueDropsTotal,
	)
}

// ConnOpened increments the live-connection gauge.
func ConnOpened() { activeConnections.Inc() }

// ConnClosed decrements the live-connection gauge.
func ConnClosed() { activeConnections.Dec() }

// SetLiveRooms records the current room count.
func SetLiveRooms(n int) { liveRooms.Set(float64(n)) }

// IncDelivery counts a successful enqueue of the named event.
func IncDelivery(event string) { deliveriesTotal.WithLabelValues(event).Inc() }

// IncDeliveryMiss counts a member skipped for lack of a live connection.
func IncDeliveryMiss() { deliveryMissesTotal.Inc() }

// IncQueueDrop counts an event dropped on queue overflow.
func IncQueueDrop() { queueDropsTotal.Inc() }
