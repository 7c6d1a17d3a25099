package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsInFlight is the gauge internal/middleware increments and
	// decrements around every handled request.
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hlsgateway_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	// HTTPRequestsTotal counts completed requests by method, normalized
	// path, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsgateway_http_requests_total",
		Help: "Total HTTP requests served, by method, path, and status.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hlsgateway_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// SessionsActive is the number of sessions with a live transcoder
	// process right now.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hlsgateway_sessions_active",
		Help: "Number of sessions with a currently running transcoder process.",
	})

	// TranscoderStarts counts spawn attempts by chosen mode and outcome
	// ("ok" or "failed").
	TranscoderStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsgateway_transcoder_starts_total",
		Help: "Transcoder spawn attempts, by mode and outcome.",
	}, []string{"mode", "outcome"})

	// TranscoderFallbacks counts speculative-mode attempts that fell back
	// to a full transcode.
	TranscoderFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlsgateway_transcoder_fallbacks_total",
		Help: "Times a speculative transcode mode fell back to full transcode.",
	})

	// EvictionReaps counts sessions removed by the eviction loop.
	EvictionReaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlsgateway_eviction_reaps_total",
		Help: "Sessions removed by the eviction loop for heartbeat staleness.",
	})

	// ProbeDuration observes how long ffprobe invocations take.
	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hlsgateway_probe_duration_seconds",
		Help:    "Time spent running ffprobe against a source URL.",
		Buckets: prometheus.DefBuckets,
	})

	// ReadinessDuration observes how long sessions wait for the master
	// playlist to appear, by mode.
	ReadinessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hlsgateway_readiness_duration_seconds",
		Help:    "Time spent waiting for the master playlist to appear, by mode.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 90, 120},
	}, []string{"mode"})
)
