// Package transcoder supervises ffmpeg child processes: one per active
// session. It implements the readiness/fallback state machine of
// spec.md §4.4, grounded on the teacher's Transcoder type (a
// map[string]*exec.Cmd guarded by a mutex, one process tracked per key,
// killed via cmd.Process.Kill() on client disconnect) and on the
// retrieval pack's go-vod Stream (stderr tailed on a goroutine, process
// killed and waited on teardown).
package transcoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"hlsgateway/internal/logging"
	"hlsgateway/internal/metrics"
	"hlsgateway/internal/session"
	"hlsgateway/internal/strategy"
)

// ErrStartupFailed is returned when the process exits before the master
// playlist appears.
var ErrStartupFailed = errors.New("transcoder: exited before becoming ready")

// ErrReadyTimeout is returned when the readiness deadline elapses before
// the master playlist appears; the process is killed before returning.
var ErrReadyTimeout = errors.New("transcoder: timed out waiting for readiness")

var stderrNoisePattern = regexp.MustCompile(`(?i)error|fail`)

// Handle is a running (or just-exited) ffmpeg process. It satisfies
// session.TranscoderHandle.
type Handle struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	killed bool
}

// Kill terminates the process if it is still running. Safe to call more
// than once and safe to call after the process has already exited.
func (h *Handle) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.killed {
		return
	}
	h.killed = true
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
}

// Supervisor spawns and supervises ffmpeg processes on behalf of the
// session store. It holds no per-session state itself — the resulting
// Handle is stored in the session by the caller.
type Supervisor struct {
	FFmpegPath string
}

// New constructs a Supervisor that invokes ffmpegPath.
func New(ffmpegPath string) *Supervisor {
	return &Supervisor{FFmpegPath: ffmpegPath}
}

// Request describes one spawn attempt, including the optional one-level
// fallback spec.md §4.4 allows for speculative modes.
type Request struct {
	SessionDir string

	PrimaryMode    strategy.Mode
	PrimaryArgs    []string
	PrimaryTimeout time.Duration

	// FallbackArgs is nil unless PrimaryMode is speculative (AudioOnly).
	// When set, a failed(startup) or timed-out primary attempt triggers
	// exactly one fallback spawn with FullTranscode's arguments.
	FallbackArgs    []string
	FallbackTimeout time.Duration
}

// Result is what StartWithFallback hands back to the caller.
type Result struct {
	Handle *Handle
	Mode   strategy.Mode
}

// StartWithFallback spawns req.PrimaryArgs and waits for readiness. If
// the attempt fails with a startup failure or a readiness timeout and
// req.FallbackArgs is set, it makes exactly one fallback attempt with
// strategy.FullTranscode. A second failure surfaces to the caller.
func (s *Supervisor) StartWithFallback(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	handle, err := s.spawnAndWaitReady(req.SessionDir, req.PrimaryArgs, req.PrimaryTimeout)
	if err == nil {
		metrics.ReadinessDuration.WithLabelValues(req.PrimaryMode.String()).Observe(time.Since(start).Seconds())
		metrics.TranscoderStarts.WithLabelValues(req.PrimaryMode.String(), "ok").Inc()
		return &Result{Handle: handle, Mode: req.PrimaryMode}, nil
	}

	metrics.TranscoderStarts.WithLabelValues(req.PrimaryMode.String(), "failed").Inc()

	if req.FallbackArgs == nil {
		return nil, err
	}

	metrics.TranscoderFallbacks.Inc()
	logging.Warn("transcoder: %s failed (%v), falling back to full transcode", req.PrimaryMode, err)

	fallbackStart := time.Now()
	fallback, ferr := s.spawnAndWaitReady(req.SessionDir, req.FallbackArgs, req.FallbackTimeout)
	if ferr != nil {
		metrics.TranscoderStarts.WithLabelValues(strategy.FullTranscode.String(), "failed").Inc()
		return nil, fmt.Errorf("transcoder: primary mode %s failed (%w), fallback also failed: %v",
			req.PrimaryMode, err, ferr)
	}

	metrics.ReadinessDuration.WithLabelValues(strategy.FullTranscode.String()).Observe(time.Since(fallbackStart).Seconds())
	metrics.TranscoderStarts.WithLabelValues(strategy.FullTranscode.String(), "ok").Inc()
	return &Result{Handle: fallback, Mode: strategy.FullTranscode}, nil
}

// spawnAndWaitReady implements the spawned -> ready | failed(startup) |
// timed-out transitions of spec.md §4.4's state machine. The process's
// lifetime is intentionally decoupled from the caller's context: once
// spawned, the process is supervised by the session, not the request.
func (s *Supervisor) spawnAndWaitReady(sessionDir string, args []string, deadline time.Duration) (*Handle, error) {
	cmd := exec.Command(s.FFmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("transcoder: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("transcoder: start: %w", err)
	}

	handle := &Handle{cmd: cmd}
	go tailStderr(stderr)

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	playlist := sessionDir + "/main.m3u8"
	readyCtx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	readyErr := make(chan error, 1)
	go func() { readyErr <- session.WaitReady(readyCtx, playlist, deadline) }()

	select {
	case exitErr := <-exited:
		if exitErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrStartupFailed, exitErr)
		}
		// Exited 0 before the playlist ever appeared: still a startup
		// failure, there is nothing to serve.
		return nil, ErrStartupFailed
	case err := <-readyErr:
		if err != nil {
			handle.Kill()
			return nil, ErrReadyTimeout
		}
		metrics.SessionsActive.Inc()
		go waitAndRecordExit(cmd, exited)
		return handle, nil
	}
}

// waitAndRecordExit drains the already-in-flight cmd.Wait() result so the
// child doesn't become a zombie once readiness has already been reported
// as success; spec.md §4.4's shutdown contract only requires the handle
// to be cleared, not for this goroutine to block anyone.
func waitAndRecordExit(cmd *exec.Cmd, exited chan error) {
	err := <-exited
	metrics.SessionsActive.Dec()
	if err != nil {
		logging.Debug("transcoder: pid %d exited after readiness: %v", cmd.Process.Pid, err)
	}
}

// tailStderr implements spec.md §4.4's stderr policy: forward lines
// matching "error" or "fail" (case-insensitive), drop the rest to bound
// log volume.
func tailStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if stderrNoisePattern.MatchString(line) {
			logging.Error("ffmpeg: %s", strings.TrimSpace(line))
		}
	}
}
