package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/topostack/pkg/cache"
	"github.com/matzehuels/topostack/pkg/observability"
	"github.com/matzehuels/topostack/pkg/pipeline"
)

func newTestServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()
	observability.Reset()
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewMetrics(nil)
	m.Install()
	runner := pipeline.NewRunner(fc, cache.NewScopedKeyer(nil, "api:"), nil)
	return New(Config{Runner: runner, Metrics: m}), m
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestVersion(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/version", "")
	body := decodeBody[map[string]string](t, rec)
	if body["version"] == "" {
		t.Error("version missing")
	}
}

func TestClassify(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/classify", `{"hostnames": ["npccosr01", "EDGE-RTR-1"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[ClassifyResponse](t, rec)
	if len(resp.Identities) != 2 {
		t.Fatalf("identities = %d", len(resp.Identities))
	}
	id := resp.Identities[0]
	if dc, _ := id.Datacenter(); dc != "npc" || !id.Valid() {
		t.Errorf("npccosr01 = %+v", id)
	}
	if resp.Identities[1].Valid() {
		t.Error("EDGE-RTR-1 should not classify")
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed", `{"hostnames": [`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty hostname", `{"hostnames": [""]}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/api/v1/classify", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

const layoutBody = `{
  "physical": {
    "nodes": [{"name": "npccosr01"}, {"name": "npccosr02"}],
    "edges": [
      {"source": "npccosr01", "target": "npccosr02", "source_interface": "Te1/1", "target_interface": "Te1/1"},
      {"source": "npccosr01", "target": "npcdisw07"}
    ]
  },
  "bgp": {
    "edges": [{"source": "npccosr01", "target": "203.0.113.1", "local_as": 65001, "remote_as": 174}]
  },
  "per_datacenter": true,
  "formats": ["json", "dot"]
}`

func TestLayout(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/layout", layoutBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("X-Run-ID header missing")
	}
	resp := decodeBody[LayoutResponse](t, rec)
	if resp.GraphHash == "" || resp.RunID == "" {
		t.Errorf("run_id = %q graph_hash = %q", resp.RunID, resp.GraphHash)
	}
	if resp.Build.Implicit != 2 {
		t.Errorf("implicit nodes = %d, want 2", resp.Build.Implicit)
	}
	if len(resp.Views) != 2 || resp.Views[0].Name != pipeline.ViewAll || resp.Views[1].Name != "npc" {
		t.Fatalf("views = %+v", resp.Views)
	}

	all := resp.Views[0]
	for _, id := range []string{"npcdisw07", "203.0.113.1"} {
		if _, ok := all.Document.Node(id); !ok {
			t.Errorf("implicit node %s has no coordinates", id)
		}
	}
	if !bytes.Contains(all.Artifacts["dot"], []byte("graph topology")) {
		t.Error("dot artifact missing")
	}
	if _, ok := all.Artifacts["json"]; ok {
		t.Error("json artifact duplicated next to the document")
	}
}

func TestLayoutCached(t *testing.T) {
	s, _ := newTestServer(t)
	first := decodeBody[LayoutResponse](t, do(t, s, http.MethodPost, "/api/v1/layout", layoutBody))
	second := decodeBody[LayoutResponse](t, do(t, s, http.MethodPost, "/api/v1/layout", layoutBody))

	if first.Views[0].Cached || !second.Views[0].Cached {
		t.Errorf("cached = %v then %v, want false then true", first.Views[0].Cached, second.Views[0].Cached)
	}
	if first.GraphHash != second.GraphHash {
		t.Error("graph hash changed between identical requests")
	}
	if first.RunID == second.RunID {
		t.Error("run IDs must differ")
	}
	if first.Views[0].Document.ID != second.Views[0].Document.ID {
		t.Error("cached document differs")
	}
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown datacenter", `{"datacenter": "zzz"}`, http.StatusBadRequest, "INVALID_DATACENTER"},
		{"bad format", `{"formats": ["pdf"]}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"conflicting views", `{"datacenter": "npc", "per_datacenter": true}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/api/v1/layout", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestLayoutBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.MaxBodyBytes = 16
	rec := do(t, s, http.MethodPost, "/api/v1/layout", layoutBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegistry(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/registry", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Fingerprint string `json:"fingerprint"`
		Registry    struct {
			Datacenters []string `json:"datacenters"`
		} `json:"registry"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Fingerprint != s.cfg.Registry.Fingerprint() {
		t.Errorf("fingerprint = %q", body.Fingerprint)
	}
	if len(body.Registry.Datacenters) == 0 {
		t.Error("datacenters missing")
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/api/v1/layout", layoutBody)
	do(t, s, http.MethodGet, "/health", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`topostack_http_requests_total{code="200",method="POST",route="/api/v1/layout"} 1`,
		`topostack_http_requests_total{code="200",method="GET",route="/health"} 1`,
		`topostack_cache_operations_total{key_type="layout",op="miss"} 2`,
		`topostack_layout_duration_seconds_count{scope="datacenter"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/api/v1/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ListenAndServe() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
