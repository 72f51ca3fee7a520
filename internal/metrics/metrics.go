package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sampler metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenwatcher_fetches_total",
			Help: "Total number of price source fetches",
		},
		[]string{"source", "status"}, // source: reference, tokens; status: ok, failed
	)

	// Engine metrics
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenwatcher_cycles_total",
			Help: "Total number of evaluation cycles executed",
		},
	)

	IncompleteSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenwatcher_incomplete_snapshots_total",
			Help: "Total number of cycles skipped on an incomplete snapshot",
		},
	)

	UnknownTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenwatcher_unknown_tokens_total",
			Help: "Total number of watched tokens missing from a snapshot",
		},
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenwatcher_alerts_fired_total",
			Help: "Total number of threshold alerts fired",
		},
		[]string{"direction"},
	)

	// Dispatch metrics
	SinkDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenwatcher_sink_deliveries_total",
			Help: "Total number of sink delivery attempts",
		},
		[]string{"sink", "status"}, // status: ok, failed
	)
)
