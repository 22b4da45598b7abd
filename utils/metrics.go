package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the derby. Registered via promauto on the
// default registry, exposed by the web server's /metrics handler.
var (
	RacesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_races_started_total",
		Help: "Races that entered the running phase.",
	})

	RacesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_races_finished_total",
		Help: "Races in which every tadpole crossed the finish line.",
	})

	RacesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_races_cancelled_total",
		Help: "Races cancelled by the initiator or expired by cleanup.",
	})

	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_bets_placed_total",
		Help: "Accepted wagers.",
	})

	ChipsWagered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_chips_wagered_total",
		Help: "Total chips staked across all races.",
	})

	ChipsPaidOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derby_chips_paid_out_total",
		Help: "Total chips credited back by settlements.",
	})

	RaceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "derby_race_duration_seconds",
		Help:    "Wall time from race start to the last finish.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})

	OverlayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "derby_overlay_clients",
		Help: "Connected websocket overlay clients.",
	})
)
