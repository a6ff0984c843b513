// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package metrics defines Prometheus collectors for Feedgarden.
// All collectors are registered on the default registry via promauto and
// exposed at /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogFetchTotal counts catalog fetch attempts by result.
	CatalogFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "catalog",
		Name:      "fetch_total",
		Help:      "Catalog fetch attempts by result (success, error, fallback).",
	}, []string{"result"})

	// CatalogFetchDuration observes catalog fetch latency.
	CatalogFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feedgarden",
		Subsystem: "catalog",
		Name:      "fetch_duration_seconds",
		Help:      "Catalog fetch latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// CatalogItems gauges the item count of the current catalog snapshot.
	CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedgarden",
		Subsystem: "catalog",
		Name:      "items",
		Help:      "Number of items in the current catalog snapshot.",
	})

	// RankingRequestTotal counts ranking provider calls by result.
	RankingRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "ranking",
		Name:      "request_total",
		Help:      "Ranking provider calls by result (success, error, unavailable).",
	}, []string{"result"})

	// RankingRequestDuration observes ranking provider latency.
	RankingRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feedgarden",
		Subsystem: "ranking",
		Name:      "request_duration_seconds",
		Help:      "Ranking provider latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// FeedAssembleTotal counts feed assemblies by ordering source.
	FeedAssembleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "feed",
		Name:      "assemble_total",
		Help:      "Feed assemblies by ordering source (ranked, local).",
	}, []string{"source"})

	// CacheHits counts media cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Media cache hits.",
	})

	// CacheMisses counts media cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Media cache misses.",
	})

	// CacheFetchTotal counts media downloads during prime passes by result.
	CacheFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "cache",
		Name:      "fetch_total",
		Help:      "Media downloads during prime passes by result (success, error, skipped).",
	}, []string{"result"})

	// CacheBytes gauges the total bytes held in the media cache.
	CacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedgarden",
		Subsystem: "cache",
		Name:      "bytes",
		Help:      "Total bytes held in the media cache.",
	})

	// InteractionTotal counts interaction mutations by kind.
	InteractionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgarden",
		Subsystem: "store",
		Name:      "interaction_total",
		Help:      "Interaction mutations by kind (like, dislike, save, unsave, progress, restore).",
	}, []string{"kind"})

	// HTTPRequestDuration observes API request latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedgarden",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// WebsocketClients gauges currently connected websocket clients.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedgarden",
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Currently connected websocket clients.",
	})
)
