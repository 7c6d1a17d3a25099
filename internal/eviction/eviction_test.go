package eviction

import (
	"testing"
	"time"

	"hlsgateway/internal/session"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestSweep_RemovesOnlyStaleSessions(t *testing.T) {
	store := session.New(t.TempDir())
	store.GetOrCreate("fresh")
	store.GetOrCreate("stale")

	base := time.Now()
	clock := &fakeClock{now: base}

	loop := New(store, time.Minute, 2*time.Hour).WithClock(clock)

	if stale, _ := store.Lookup("stale"); stale != nil {
		stale.WithLock(func(st *session.State) {
			st.LastHeartbeat = base.Add(-3 * time.Hour)
		})
	}
	if fresh, _ := store.Lookup("fresh"); fresh != nil {
		fresh.WithLock(func(st *session.State) {
			st.LastHeartbeat = base.Add(-10 * time.Minute)
		})
	}

	loop.sweep()

	if _, ok := store.Lookup("stale"); ok {
		t.Error("expected stale session to be evicted")
	}
	if _, ok := store.Lookup("fresh"); !ok {
		t.Error("expected fresh session to survive the sweep")
	}
}

func TestSweep_NoVictimsIsANoop(t *testing.T) {
	store := session.New(t.TempDir())
	store.GetOrCreate("a")

	loop := New(store, time.Minute, 2*time.Hour).WithClock(&fakeClock{now: time.Now()})
	loop.sweep()

	if _, ok := store.Lookup("a"); !ok {
		t.Error("expected session to survive when nothing is stale")
	}
}

func TestStartStop_DoesNotPanicOrHang(t *testing.T) {
	store := session.New(t.TempDir())
	loop := New(store, time.Millisecond, time.Hour)
	loop.Start()
	time.Sleep(5 * time.Millisecond)
	loop.Stop()
}
