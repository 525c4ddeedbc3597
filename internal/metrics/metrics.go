// Package metrics defines the Prometheus instruments for collectors, the
// router, and the MCP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CollectorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picker_collector_requests_total",
			Help: "Total number of upstream requests issued per collector",
		},
		[]string{"collector"},
	)

	CollectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picker_collector_failures_total",
			Help: "Total number of failed upstream requests per collector",
		},
		[]string{"collector"},
	)

	CollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "picker_collector_duration_seconds",
			Help: "Duration of collector runs in seconds",
		},
		[]string{"collector"},
	)

	RouterSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picker_router_selections_total",
			Help: "Number of times each collector was selected by the router",
		},
		[]string{"collector"},
	)

	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picker_rpc_requests_total",
			Help: "JSON-RPC requests handled, by method",
		},
		[]string{"method"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picker_tool_calls_total",
			Help: "MCP tool invocations, by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
)
