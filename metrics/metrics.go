// Package metrics exposes the service's prometheus collectors. Collectors
// are registered on the default registry and served via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsApplied counts successfully applied events by kind.
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_events_applied_total",
		Help: "Number of live match events applied, by event kind.",
	}, []string{"kind"})

	// EventsRejected counts events rejected before mutation.
	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_events_rejected_total",
		Help: "Number of live match events rejected, by reason.",
	}, []string{"reason"})

	// PersistFailures counts best-effort snapshot writes that failed or
	// timed out. The in-memory state stays authoritative regardless.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "live_persist_failures_total",
		Help: "Number of failed best-effort snapshot persistence writes.",
	})

	// MatchesResident tracks how many match snapshots are held in memory.
	MatchesResident = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_matches_resident",
		Help: "Number of live match snapshots currently resident in memory.",
	})

	// SnapshotsArchived counts snapshots uploaded to object storage.
	SnapshotsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "live_snapshots_archived_total",
		Help: "Number of match snapshots archived to object storage.",
	})
)
