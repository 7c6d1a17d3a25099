// Package metrics registers the gateway's Prometheus series: generic
// HTTP request metrics (consumed by internal/middleware) and
// domain-specific series for sessions, transcoder outcomes, eviction,
// and probe/readiness latency.
package metrics
