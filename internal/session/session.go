// Package session is the gateway's only shared mutable state: an
// in-memory table of active streaming sessions, keyed by an
// opaque, caller-supplied session ID. It is grounded on the teacher's
// map-plus-mutex process table (internal/transcoder's processes map
// protected by processMu), generalized from a single exec.Cmd-per-key
// table into a richer per-session record with its own mutex.
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"hlsgateway/internal/logging"
	"hlsgateway/internal/strategy"
)

// ErrInvalidID is returned when a caller-supplied session ID fails the
// filesystem-path-component allow-list. This is a security contract:
// an ID is about to be joined onto the HLS root, so it must never carry
// a path separator, "..", or a null byte.
var ErrInvalidID = errors.New("session: invalid id")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateID reports whether id is safe to use as a single path
// component under the HLS root.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// TranscoderHandle is the minimal view of a running transcoder that the
// store needs: something it can kill.
type TranscoderHandle interface {
	Kill()
}

// Session is one active streaming session. Fields beyond the embedded
// mutex are only ever read/written while mu is held.
type Session struct {
	ID  string
	Dir string

	mu               sync.Mutex
	sourceURL        string
	transcoderHandle TranscoderHandle
	lastHeartbeat    time.Time
	forceTranscode   bool
	lastMode         strategy.Mode

	opMu sync.Mutex
}

// Lock acquires the session's operation lock. Callers hold this across
// an entire multi-step operation (probe, decide, spawn) rather than
// just the state read/write at either end, so that two concurrent
// requests for the same session can never interleave and both spawn a
// transcoder into the same Dir. It is a separate lock from the one
// WithLock uses: that one guards only the state fields and is always
// held briefly, never across a probe or a process spawn.
func (s *Session) Lock() {
	s.opMu.Lock()
}

// Unlock releases the session's operation lock.
func (s *Session) Unlock() {
	s.opMu.Unlock()
}

// WithLock runs fn with the session's per-session mutex held. Callers
// use this instead of reaching into the unexported fields directly, so
// that every field access goes through the same lock discipline spec.md
// §5 requires: the map mutex is held only briefly, and long operations
// (spawn, readiness wait) run without it.
func (s *Session) WithLock(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		SourceURL:        s.sourceURL,
		TranscoderHandle: s.transcoderHandle,
		LastHeartbeat:    s.lastHeartbeat,
		ForceTranscode:   s.forceTranscode,
		LastMode:         s.lastMode,
	}
	fn(&st)
	s.sourceURL = st.SourceURL
	s.transcoderHandle = st.TranscoderHandle
	s.lastHeartbeat = st.LastHeartbeat
	s.forceTranscode = st.ForceTranscode
	s.lastMode = st.LastMode
}

// State is the mutable snapshot WithLock hands to its callback.
type State struct {
	SourceURL        string
	TranscoderHandle TranscoderHandle
	LastHeartbeat    time.Time
	ForceTranscode   bool
	LastMode         strategy.Mode
}

// Store is the map of active sessions, protected by a single mutex held
// only for the map operation itself; per-session mutation always goes
// through Session.WithLock after the entry has been located.
type Store struct {
	hlsRoot string

	mu       sync.Mutex
	sessions map[string]*Session
}

// New constructs a Store rooted at hlsRoot. It does not touch the
// filesystem; call Reset to perform startup hygiene.
func New(hlsRoot string) *Store {
	return &Store{
		hlsRoot:  hlsRoot,
		sessions: make(map[string]*Session),
	}
}

// Reset implements spec.md §4.5's startup hygiene: the entire HLS root
// is removed and recreated so that sessions from a previous process do
// not survive a restart.
func (s *Store) Reset() error {
	if err := os.RemoveAll(s.hlsRoot); err != nil {
		return err
	}
	return os.MkdirAll(s.hlsRoot, 0o755)
}

// GetOrCreate returns the existing session for id, or constructs one and
// creates its directory. id must already have passed ValidateID.
func (s *Store) GetOrCreate(id string) (*Session, error) {
	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	dir := filepath.Join(s.hlsRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	sess := &Session{ID: id, Dir: dir, lastHeartbeat: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		// Lost a race with a concurrent GetOrCreate; the directory we just
		// made is harmless and reused by the winner.
		return existing, nil
	}
	s.sessions[id] = sess
	return sess, nil
}

// Lookup returns the session for id, or false if absent.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Touch updates lastHeartbeat for id if the session exists. It reports
// whether the session was found.
func (s *Store) Touch(id string) bool {
	sess, ok := s.Lookup(id)
	if !ok {
		return false
	}
	sess.WithLock(func(st *State) {
		now := time.Now()
		if now.After(st.LastHeartbeat) {
			st.LastHeartbeat = now
		}
	})
	return true
}

// ForEach calls fn for a snapshot of the current sessions. Used by the
// eviction loop: the lock is held only long enough to copy the slice, so
// fn never runs under the map mutex.
func (s *Store) ForEach(fn func(*Session)) {
	s.mu.Lock()
	snapshot := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.mu.Unlock()

	for _, sess := range snapshot {
		fn(sess)
	}
}

// Remove kills the session's transcoder (if any), removes its directory,
// and drops it from the map. It is a no-op if id is absent.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	sess.WithLock(func(st *State) {
		if st.TranscoderHandle != nil {
			st.TranscoderHandle.Kill()
			st.TranscoderHandle = nil
		}
	})

	// A concurrent Start racing this removal may have already called
	// GetOrCreate and registered a brand-new session for id, with a
	// freshly spawned transcoder writing into the same directory (ids map
	// deterministically onto directories). Re-check immediately before
	// the filesystem removal so that case is observed and the new
	// session's directory is left alone; spec.md §4.6 requires the new
	// start to see the old session gone and create afresh, not have its
	// own fresh directory deleted out from under it.
	s.mu.Lock()
	_, reregistered := s.sessions[id]
	s.mu.Unlock()
	if reregistered {
		logging.Warn("session: skipping directory removal for %s: a new session was registered concurrently", id)
		return
	}

	if err := os.RemoveAll(sess.Dir); err != nil {
		logging.Warn("session: failed to remove directory %s: %v", sess.Dir, err)
	}
}

// MasterPlaylistPath is the readiness marker's path within the session
// directory.
func (s *Session) MasterPlaylistPath() string {
	return filepath.Join(s.Dir, "main.m3u8")
}

// WaitReady polls for the master playlist to appear, per spec.md §4.4's
// readiness contract: poll every 500ms up to deadline. It returns nil as
// soon as the file exists, or ctx.Err()/a deadline-exceeded error
// otherwise.
func WaitReady(ctx context.Context, path string, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				return nil
			}
		}
	}
}
