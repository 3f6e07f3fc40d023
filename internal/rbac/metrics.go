package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultGranted     = "granted"
	resultDenied      = "denied"
	resultUnavailable = "unavailable"

	modeCurrent    = "current"
	modeHistorical = "historical"
)

var (
	checksTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_permission_checks_total",
			Help: "Number of permission checks answered by the gate, differentiated by result.",
		},
		[]string{"result"},
	)

	resolutionSeconds = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "rbac_resolution_duration_seconds",
			Help:    "Time spent computing effective permission sets.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	cacheLookups = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_resolution_cache_lookups_total",
			Help: "Effective permission cache lookups, differentiated by hit or miss.",
		},
		[]string{"result"},
	)

	mutationsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_mutations_total",
			Help: "Committed role, permission and assignment mutations, differentiated by audit action.",
		},
		[]string{"action"},
	)
)
