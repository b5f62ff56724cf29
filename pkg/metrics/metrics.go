// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import "github.com/prometheus/client_golang/prometheus"

// AccessMetricKind classifies denied access by the rule that rejected it.
type AccessMetricKind string

const (
	AccessMetricAuth  AccessMetricKind = "auth"
	AccessMetricEnv   AccessMetricKind = "env"
	AccessMetricGuard AccessMetricKind = "guard"
	AccessMetricRule  AccessMetricKind = "rule"
)

var (
	registry       = prometheus.NewRegistry()
	cascadeFanouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canic_cascade_fanout_total",
			Help: "Number of cascade fan-outs, by snapshot kind ('state' or 'topology').",
		},
		[]string{"kind"},
	)
	cascadeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canic_cascade_failures_total",
			Help: "Number of cascade hops that failed, by snapshot kind.",
		},
		[]string{"kind"},
	)
	lifecycleEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canic_lifecycle_events_total",
			Help: "Lifecycle events applied by the orchestrator, by event and outcome.",
		},
		[]string{"event", "outcome"},
	)
	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canic_rpc_calls_total",
			Help: "Cross-canister RPC calls handled, by method.",
		},
		[]string{"method"},
	)
	accessFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canic_access_failures_total",
			Help: "Denied calls, by access rule kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	registry.MustRegister(
		cascadeFanouts,
		cascadeFailures,
		lifecycleEvents,
		rpcCalls,
		accessFailures,
	)
}

// Registry exposes the metrics registry for scraping.
func Registry() *prometheus.Registry {
	return registry
}

// CascadeFanout counts one fan-out of the given snapshot kind.
func CascadeFanout(kind string) {
	cascadeFanouts.WithLabelValues(kind).Inc()
}

// CascadeFailure counts one failed cascade hop.
func CascadeFailure(kind string) {
	cascadeFailures.WithLabelValues(kind).Inc()
}

// LifecycleEvent counts one orchestrator event with its outcome.
func LifecycleEvent(event, outcome string) {
	lifecycleEvents.WithLabelValues(event, outcome).Inc()
}

// RPCCall counts one call handled by a receiving canister.
func RPCCall(method string) {
	rpcCalls.WithLabelValues(method).Inc()
}

// AccessFailure counts one denied call.
func AccessFailure(kind AccessMetricKind) {
	accessFailures.WithLabelValues(string(kind)).Inc()
}
