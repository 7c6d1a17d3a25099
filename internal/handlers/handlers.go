// Package handlers wires the gateway's HTTP surface to the Probe,
// Strategy Selector, Arg Builder, Transcoder Supervisor, and Session
// Store. Structured the way the teacher's internal/handlers is: a single
// Handlers struct holding its collaborators, with one file per concern
// (metadata.go, stream.go, health.go, version.go).
package handlers

import (
	"net/http"
	"time"

	"hlsgateway/internal/config"
	"hlsgateway/internal/session"
	"hlsgateway/internal/transcoder"
)

// Handlers holds every collaborator an HTTP endpoint needs.
type Handlers struct {
	store      *session.Store
	supervisor *transcoder.Supervisor
	cfg        *config.Config

	httpClient *http.Client
}

// New constructs a Handlers wired to store and supervisor, configured by
// cfg.
func New(store *session.Store, supervisor *transcoder.Supervisor, cfg *config.Config) *Handlers {
	return &Handlers{
		store:      store,
		supervisor: supervisor,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 0},
	}
}

var startTime = time.Now()
