package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hlsgateway/internal/config"
	"hlsgateway/internal/eviction"
	"hlsgateway/internal/handlers"
	"hlsgateway/internal/logging"
	"hlsgateway/internal/middleware"
	"hlsgateway/internal/session"
	"hlsgateway/internal/startup"
	"hlsgateway/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.PrintBanner()
	startup.LogSystemInfo()

	if err := startup.EnsureHLSRoot(cfg.HLSRoot); err != nil {
		startup.LogFatal("HLS root not usable: %v", err)
	}
	if err := startup.CheckFFmpeg(cfg.FFmpegPath); err != nil {
		startup.LogFatal("ffmpeg preflight failed: %v", err)
	}
	if err := startup.CheckFFprobe(cfg.FFprobePath); err != nil {
		startup.LogFatal("ffprobe preflight failed: %v", err)
	}

	store := session.New(cfg.HLSRoot)
	if err := store.Reset(); err != nil {
		startup.LogFatal("Failed to reset HLS root: %v", err)
	}

	supervisor := transcoder.New(cfg.FFmpegPath)
	h := handlers.New(store, supervisor, cfg)

	evictionLoop := eviction.New(store, cfg.EvictionInterval, cfg.SessionInactivity)
	evictionLoop.Start()

	router := setupRouter(h, cfg)

	startup.LogHTTPRoutes(router, cfg.LogStaticFiles, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = cfg.LogStaticFiles
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	corsHandler := middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins})(loggedHandler)

	metricsHandler := corsHandler
	if cfg.MetricsEnabled {
		metricsHandler = middleware.Metrics(middleware.DefaultMetricsConfig())(corsHandler)
	}

	compressionConfig := middleware.DefaultCompressionConfig()
	finalHandler := middleware.Compression(compressionConfig)(metricsHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.MetricsEnabled {
		go serveMetrics(cfg.MetricsPort)
	}

	go handleShutdown(srv, evictionLoop)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/metadata", h.Metadata).Methods("GET")
	r.HandleFunc("/start", h.Start).Methods("GET")
	r.HandleFunc("/ping", h.Ping).Methods("GET")
	r.HandleFunc("/stop", h.Stop).Methods("GET")
	r.HandleFunc("/subtitle", h.Subtitle).Methods("GET")
	r.HandleFunc("/direct-stream", h.DirectStream).Methods("GET", "HEAD")
	r.HandleFunc("/client-log", h.ClientLog).Methods("POST")

	r.PathPrefix("/hls/").Handler(http.StripPrefix("/hls/", http.FileServer(http.Dir(cfg.HLSRoot))))

	return r
}

func serveMetrics(port string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, metricsMux); err != nil {
		logging.Warn("metrics server stopped: %v", err)
	}
}

func handleShutdown(srv *http.Server, evictionLoop *eviction.Loop) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping eviction loop")
	evictionLoop.Stop()
	startup.LogShutdownStepComplete("Eviction loop stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
