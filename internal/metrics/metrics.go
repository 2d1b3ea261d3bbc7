package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the profile service collectors.
type Metrics struct {
	UsernameChecks *prometheus.CounterVec
	ProfileWrites  *prometheus.CounterVec
	PhotoUploads   *prometheus.CounterVec
	Events         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UsernameChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Subsystem: "api",
			Name:      "username_checks_total",
			Help:      "Username availability checks by result",
		}, []string{"result"}),
		ProfileWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Subsystem: "api",
			Name:      "profile_writes_total",
			Help:      "Stored profiles by operation and outcome",
		}, []string{"operation", "outcome"}),
		PhotoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Subsystem: "api",
			Name:      "photo_uploads_total",
			Help:      "Profile photo uploads by outcome",
		}, []string{"outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Profile events handed to Kafka by outcome",
		}, []string{"type", "outcome"}),
	}

	m.UsernameChecks = register(reg, m.UsernameChecks)
	m.ProfileWrites = register(reg, m.ProfileWrites)
	m.PhotoUploads = register(reg, m.PhotoUploads)
	m.Events = register(reg, m.Events)
	return m
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}
