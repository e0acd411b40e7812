// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trackgate_circuit_breaker_state",
		Help: "Circuit breaker state by backend (1 for the active state, 0 otherwise)",
	}, []string{"backend", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state)",
	}, []string{"backend", "reason"})

	circuitBreakerShed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_circuit_breaker_shed_total",
		Help: "Backend calls refused while the breaker was open",
	}, []string{"backend"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active circuit breaker state for a backend.
func SetCircuitBreakerState(backend, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(backend, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker opens.
func RecordCircuitBreakerTrip(backend, reason string) {
	circuitBreakerTrips.WithLabelValues(backend, reason).Inc()
}

// IncCircuitBreakerShed records a call refused by an open breaker.
func IncCircuitBreakerShed(backend string) {
	circuitBreakerShed.WithLabelValues(backend).Inc()
}
