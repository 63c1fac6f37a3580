// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics owns the Prometheus registry and the collectors the
// service exports on /metrics.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "huddle"

// Registry bundles every collector the application records into.
//
// A nil *Registry is valid and records nothing, so services can be built
// without metrics in tests.
type Registry struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	messagesPosted  prometheus.Counter
	likesToggled    *prometheus.CounterVec
	groupsCreated   prometheus.Counter
	realtimeClients prometheus.Gauge
}

// New builds a registry with Go runtime and process collectors attached.
func New() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := &Registry{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		messagesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Messages accepted into any group.",
		}),
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_toggled_total",
			Help:      "Like toggles by resulting state.",
		}, []string{"state"}),
		groupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_created_total",
			Help:      "Groups created.",
		}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_clients",
			Help:      "Currently connected websocket clients.",
		}),
	}

	registry.MustRegister(
		metrics.requests,
		metrics.requestDuration,
		metrics.messagesPosted,
		metrics.likesToggled,
		metrics.groupsCreated,
		metrics.realtimeClients,
	)
	return metrics
}

// Handler exposes the registry in the Prometheus text format.
func (metrics *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying gatherer for tests.
func (metrics *Registry) Gatherer() prometheus.Gatherer {
	return metrics.registry
}

// MessagePosted records one accepted message.
func (metrics *Registry) MessagePosted() {
	if metrics == nil {
		return
	}
	metrics.messagesPosted.Inc()
}

// LikeToggled records a toggle that ended in the liked or unliked state.
func (metrics *Registry) LikeToggled(liked bool) {
	if metrics == nil {
		return
	}
	state := "unliked"
	if liked {
		state = "liked"
	}
	metrics.likesToggled.WithLabelValues(state).Inc()
}

// GroupCreated records one created group.
func (metrics *Registry) GroupCreated() {
	if metrics == nil {
		return
	}
	metrics.groupsCreated.Inc()
}

// ClientConnected adjusts the live websocket client gauge by delta.
func (metrics *Registry) ClientConnected(delta int) {
	if metrics == nil {
		return
	}
	metrics.realtimeClients.Add(float64(delta))
}

// # Middleware

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the websocket upgrade relies on.
func (recorder *statusRecorder) Unwrap() http.ResponseWriter {
	return recorder.ResponseWriter
}

// Hijack hands the connection to a websocket upgrade.
func (recorder *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(recorder.ResponseWriter).Hijack()
}

// Middleware records request count and latency labelled by chi route pattern
// rather than raw path, keeping label cardinality bounded.
func (metrics *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		metrics.requests.WithLabelValues(request.Method, route, strconv.Itoa(recorder.status)).Inc()
		metrics.requestDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}
