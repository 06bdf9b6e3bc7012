package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_cancelled_total",
		Help: "Total number of orders cancelled",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_latency_seconds",
		Help:    "Latency of checkout processing",
		Buckets: prometheus.DefBuckets,
	})

	PointsEarnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_points_earned_total",
		Help: "Total loyalty points earned across all orders",
	})

	PointsRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_points_redeemed_total",
		Help: "Total loyalty points redeemed across all orders",
	})

	PointAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_point_adjustments_total",
		Help: "Total number of manual point adjustments",
	}, []string{"direction"})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_settlements_total",
		Help: "Total number of member settlements applied",
	})

	SettlementsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_settlements_duplicate_total",
		Help: "Total number of settlements skipped as already applied",
	})

	SessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sessions_opened_total",
		Help: "Total number of store sessions opened",
	})

	SessionsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sessions_closed_total",
		Help: "Total number of store sessions closed",
	})

	SessionSalesCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_session_sales_cache_requests_total",
		Help: "Session sales cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
