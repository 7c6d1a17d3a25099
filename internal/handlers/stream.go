package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hlsgateway/internal/apierr"
	"hlsgateway/internal/argbuilder"
	"hlsgateway/internal/device"
	"hlsgateway/internal/logging"
	"hlsgateway/internal/middleware"
	"hlsgateway/internal/playlist"
	"hlsgateway/internal/probe"
	"hlsgateway/internal/session"
	"hlsgateway/internal/strategy"
	"hlsgateway/internal/streaming"
	"hlsgateway/internal/transcoder"

	"os/exec"
)

// clientLogBodyLimit bounds how much of a client's log body is retained,
// so a hostile or buggy client cannot use /client-log to exhaust memory.
const clientLogBodyLimit = 16 * 1024

// Start serves GET /start?url=<U>&session=<S>[&transcode=true][&device=tv].
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sourceURL := q.Get("url")
	sessionID := q.Get("session")

	if sourceURL == "" || sessionID == "" {
		apierr.BadRequest(w, "url and session are required")
		return
	}
	if err := session.ValidateID(sessionID); err != nil {
		apierr.BadRequest(w, "invalid session id")
		return
	}

	requestForce := q.Get("transcode") == "true"
	dev := device.Classify(r.UserAgent(), q.Get("device"))

	sess, err := h.store.GetOrCreate(sessionID)
	if err != nil {
		apierr.WriteError(w, "failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// The operation lock is held across the whole probe-decide-spawn
	// sequence below, not just the state reads/writes at either end, so
	// that two concurrent starts for this session can never both decide
	// "no transcoder running" and spawn one each into sess.Dir.
	sess.Lock()
	defer sess.Unlock()

	var resumed bool
	var resumedMode strategy.Mode
	var handleToKill session.TranscoderHandle
	var sticky bool

	sess.WithLock(func(st *session.State) {
		if st.TranscoderHandle != nil && st.SourceURL == sourceURL {
			resumed = true
			resumedMode = st.LastMode
			return
		}
		if st.TranscoderHandle != nil {
			handleToKill = st.TranscoderHandle
			st.TranscoderHandle = nil
		}
		st.SourceURL = sourceURL
		sticky = st.ForceTranscode
	})

	if handleToKill != nil {
		handleToKill.Kill()
	}

	if resumed {
		apierr.WriteJSON(w, map[string]string{"status": "resumed", "mode": resumedMode.String()})
		return
	}

	report, probeErr := probe.Probe(r.Context(), h.cfg.FFprobePath, sourceURL, h.cfg.ProbeTimeout)
	if probeErr != nil {
		logging.Warn("start: probe failed for %s: %v (assuming full transcode)", sourceURL, probeErr)
		report = nil
	}

	decision := strategy.Select(report, dev, requestForce, sticky)

	if decision.Mode == strategy.NativeDirect {
		sess.WithLock(func(st *session.State) { st.LastMode = strategy.NativeDirect })
		apierr.WriteJSON(w, map[string]string{
			"status":    "started",
			"mode":      strategy.NativeDirect.String(),
			"streamUrl": "/direct-stream?url=" + url.QueryEscape(sourceURL),
		})
		return
	}

	opts := argbuilder.Options{SourceURL: sourceURL, UserAgent: r.UserAgent(), SessionDir: sess.Dir}
	req := transcoder.Request{
		SessionDir:     sess.Dir,
		PrimaryMode:    decision.Mode,
		PrimaryArgs:    argbuilder.Build(opts, report, decision),
		PrimaryTimeout: h.readinessTimeout(decision.Mode),
	}

	if decision.Mode == strategy.AudioOnly {
		fallback := strategy.Decision{Mode: strategy.FullTranscode, AudioTarget: decision.AudioTarget}
		req.FallbackArgs = argbuilder.Build(opts, report, fallback)
		req.FallbackTimeout = h.cfg.ReadyTimeoutFull
	}

	result, startErr := h.supervisor.StartWithFallback(r.Context(), req)
	if startErr != nil {
		apierr.WriteError(w, "transcoder failed to start: "+startErr.Error(), http.StatusInternalServerError)
		return
	}

	fellBack := result.Mode != decision.Mode
	sess.WithLock(func(st *session.State) {
		st.TranscoderHandle = result.Handle
		st.LastMode = result.Mode
		if fellBack {
			st.ForceTranscode = true
		}
	})

	apierr.WriteJSON(w, map[string]string{"status": "started", "mode": result.Mode.String()})
}

func (h *Handlers) readinessTimeout(mode strategy.Mode) time.Duration {
	if mode == strategy.AudioOnly {
		return h.cfg.ReadyTimeoutFast
	}
	return h.cfg.ReadyTimeoutFull
}

// Ping serves GET /ping?session=<S>.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		apierr.BadRequest(w, "session is required")
		return
	}

	if !h.store.Touch(sessionID) {
		apierr.InvalidSession(w)
		return
	}

	sess, ok := h.store.Lookup(sessionID)
	if !ok {
		apierr.InvalidSession(w)
		return
	}

	progress, err := playlist.ReadProgress(sess.MasterPlaylistPath())
	if err != nil {
		apierr.WriteError(w, "failed to read playlist: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apierr.WriteJSON(w, map[string]interface{}{
		"status":          "active",
		"encodedDuration": progress.EncodedDuration,
		"liveEdgeTime":    progress.LiveEdgeTime,
	})
}

// Stop serves GET /stop?session=<S>: kills the transcoder but retains the
// session record, per spec.md §9's resolution of the retention open
// question — a subsequent start can resume without a new directory.
func (h *Handlers) Stop(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		apierr.BadRequest(w, "session is required")
		return
	}

	sess, ok := h.store.Lookup(sessionID)
	if !ok {
		apierr.InvalidSession(w)
		return
	}

	// Held for the same reason as in Start: without it, a Stop landing
	// mid-spawn could kill nothing (the handle isn't assigned yet) and
	// then have Start's result silently overwrite its nil.
	sess.Lock()
	defer sess.Unlock()

	var handle session.TranscoderHandle
	sess.WithLock(func(st *session.State) {
		handle = st.TranscoderHandle
		st.TranscoderHandle = nil
	})
	if handle != nil {
		handle.Kill()
	}

	apierr.WriteStatus(w, "stopped")
}

// DirectStream serves GET/HEAD /direct-stream?url=<U>: a byte-for-byte
// proxy forwarding Range and User-Agent upstream and the response's
// content headers back.
func (h *Handlers) DirectStream(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("url")
	if sourceURL == "" {
		apierr.BadRequest(w, "url is required")
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), r.Method, sourceURL, nil)
	if err != nil {
		apierr.BadRequest(w, "invalid url")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		upstreamReq.Header.Set("Range", rng)
	}
	upstreamReq.Header.Set("User-Agent", r.UserAgent())

	resp, err := h.httpClient.Do(upstreamReq)
	if err != nil {
		apierr.WriteError(w, "upstream request failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, key := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(key); v != "" {
			w.Header().Set(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		return
	}

	// A byte-range proxy response already has its own Content-Length or
	// Content-Range; StreamWithTimeout's chunked-encoding headers would
	// conflict with that, so the TimeoutWriter is used directly instead.
	tw := streaming.NewTimeoutWriter(r.Context(), w, streaming.TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	})
	defer tw.Close()

	if _, err := io.Copy(tw, resp.Body); err != nil {
		logging.Debug("direct-stream: client disconnected: %v", err)
	}
}

// Subtitle serves GET /subtitle?url=<U>&index=<I>: extracts the absolute
// source stream index I as WebVTT and streams it. The index is the
// metadata response's subs[].index verbatim, not a relative ordinal.
func (h *Handlers) Subtitle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sourceURL := q.Get("url")
	indexStr := q.Get("index")
	if sourceURL == "" || indexStr == "" {
		apierr.BadRequest(w, "url and index are required")
		return
	}

	idx, err := strconv.Atoi(indexStr)
	if err != nil {
		apierr.BadRequest(w, "index must be an integer")
		return
	}

	cmd := exec.CommandContext(r.Context(), h.cfg.FFmpegPath,
		"-y",
		"-i", sourceURL,
		"-map", fmt.Sprintf("0:%d", idx),
		"-f", "webvtt",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	w.Header().Set("Content-Type", "text/vtt")
	cmd.Stdout = w

	if err := cmd.Run(); err != nil {
		logging.Error("subtitle: extraction failed for %s index %d: %v: %s", sourceURL, idx, err, stderr.String())
	}
}

// ClientLog serves POST /client-log: the body is appended to the server
// log at warn level, capped and sanitized so a hostile body cannot
// exhaust memory or forge log lines.
func (h *Handlers) ClientLog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, clientLogBodyLimit))
	if err != nil {
		apierr.BadRequest(w, "failed to read body")
		return
	}
	logging.Warn("client: %s", middleware.SanitizeLogField(string(body)))
	w.WriteHeader(http.StatusOK)
}
