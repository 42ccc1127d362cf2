package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assetTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assets",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Total number of asset lifecycle transitions broken down by action and outcome.",
	}, []string{"action", "outcome"})

	assetWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assets",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of asset write conflicts broken down by kind.",
	}, []string{"kind"})

	assetPendingResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assets",
		Subsystem: "approvals",
		Name:      "resolved_total",
		Help:      "Total number of resolved approval requests broken down by kind and decision.",
	}, []string{"kind", "decision"})
)

func recordTransition(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	assetTransitions.WithLabelValues(action, outcome).Inc()
}

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	assetWriteConflicts.WithLabelValues(kind).Inc()
}

func recordResolution(kind, decision string) {
	assetPendingResolved.WithLabelValues(kind, decision).Inc()
}
