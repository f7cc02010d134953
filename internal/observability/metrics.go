package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnest_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// ChatMessages counts appended chat messages by the sender's side of the chat.
	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnest_chat_messages_total",
		Help: "Total number of chat messages appended",
	}, []string{"sender_role"})

	// ChatsCreated counts chats created by find-or-create (lookups that hit are not counted).
	ChatsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusnest_chats_created_total",
		Help: "Total number of chats created",
	})

	// NotificationsCreated counts dispatched notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnest_notifications_created_total",
		Help: "Total number of notifications created",
	}, []string{"type"})

	// ListingViews counts recorded listing views.
	ListingViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusnest_listing_views_total",
		Help: "Total number of listing views recorded",
	})

	// ViewMilestones counts milestone crossings that fired a notification.
	ViewMilestones = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusnest_view_milestones_total",
		Help: "Total number of listing view milestones reached",
	})

	// ReportTransitions counts report status changes by target status.
	ReportTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnest_report_transitions_total",
		Help: "Total number of report status transitions",
	}, []string{"to"})

	// WebSocketConnections is the gauge of active WebSocket connections per hub.
	WebSocketConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "campusnest_websocket_connections",
		Help: "Number of active WebSocket connections",
	}, []string{"hub"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnest_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseQueryLatency records database query latency by operation and table.
var DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "campusnest_database_query_latency_seconds",
	Help:    "Database query latency in seconds",
	Buckets: prometheus.DefBuckets,
}, []string{"operation", "table"})
