package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_recompute_total",
		Help: "Derived field recomputations by kind and outcome.",
	}, []string{"kind", "outcome"})

	recomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engagement_recompute_duration_seconds",
		Help:    "Time spent recomputing a derived field.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"kind"})

	relatedCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_related_cache_lookups_total",
		Help: "Related-content cache lookups by result.",
	}, []string{"result"})
)
