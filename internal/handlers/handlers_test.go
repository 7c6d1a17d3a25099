package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hlsgateway/internal/config"
	"hlsgateway/internal/session"
	"hlsgateway/internal/transcoder"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	store := session.New(t.TempDir())
	supervisor := transcoder.New("/bin/false")
	cfg := &config.Config{
		FFmpegPath:        "/bin/false",
		FFprobePath:       "/bin/false",
		ProbeTimeout:      time.Second,
		ReadyTimeoutFast:  time.Second,
		ReadyTimeoutFull:  time.Second,
		SessionInactivity: 2 * time.Hour,
	}
	return New(store, supervisor, cfg)
}

func TestMetadata_MissingURLIs400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/metadata", nil)
	rec := httptest.NewRecorder()

	h.Metadata(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPing_UnknownSessionIs404(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/ping?session=nope", nil)
	rec := httptest.NewRecorder()

	h.Ping(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "invalid_session" {
		t.Errorf("body = %v, want invalid_session", body)
	}
}

func TestPing_MissingSessionIs400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()

	h.Ping(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPing_KnownSessionReportsProgress(t *testing.T) {
	h := newTestHandlers(t)
	sess, err := h.store.GetOrCreate("s1")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping?session=s1", nil)
	rec := httptest.NewRecorder()
	h.Ping(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "active" {
		t.Errorf("status field = %v, want active", body["status"])
	}
	_ = sess
}

func TestStop_UnknownSessionIs404(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/stop?session=nope", nil)
	rec := httptest.NewRecorder()

	h.Stop(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStop_KnownSessionKillsHandleAndRetainsRecord(t *testing.T) {
	h := newTestHandlers(t)
	sess, _ := h.store.GetOrCreate("s1")

	killed := false
	sess.WithLock(func(st *session.State) {
		st.TranscoderHandle = killFunc(func() { killed = true })
	})

	req := httptest.NewRequest(http.MethodGet, "/stop?session=s1", nil)
	rec := httptest.NewRecorder()
	h.Stop(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !killed {
		t.Error("expected transcoder handle to be killed")
	}
	if _, ok := h.store.Lookup("s1"); !ok {
		t.Error("expected session record to survive stop")
	}
}

type killFunc func()

func (k killFunc) Kill() { k() }

func TestClientLog_AppendsBodyAndReturns200(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/client-log", strings.NewReader(`{"event":"seek"}`))
	rec := httptest.NewRecorder()

	h.ClientLog(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestDirectStream_MissingURLIs400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/direct-stream", nil)
	rec := httptest.NewRecorder()

	h.DirectStream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDirectStream_ProxiesUpstreamBytesAndHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("payload"))
	}))
	defer upstream.Close()

	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/direct-stream?url="+upstream.URL, nil)
	rec := httptest.NewRecorder()

	h.DirectStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "payload" {
		t.Errorf("body = %q, want payload", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", rec.Header().Get("Content-Type"))
	}
}

func TestStart_MissingParamsIs400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/start", nil)
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStart_InvalidSessionIDIs400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/start?url=http://x&session=../etc", nil)
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthCheck_Returns200(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGetVersion_Returns200WithBuildInfo(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	h.GetVersion(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["goVersion"] == "" {
		t.Error("expected a non-empty goVersion field")
	}
}
