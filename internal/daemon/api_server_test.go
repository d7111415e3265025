package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"videodrome/internal/api"
	"videodrome/internal/history"
	"videodrome/internal/logging"
	"videodrome/internal/services"
	"videodrome/internal/testsupport"
)

func newTestServer(t *testing.T, h *harness, token string) *httptest.Server {
	t.Helper()
	srv := &apiServer{daemon: h.daemon, logger: logging.NewNop()}
	server := httptest.NewServer(srv.routes(token))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestAPIStatus(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	var status api.DaemonStatus
	if code := doJSON(t, http.MethodGet, server.URL+"/api/status", nil, &status); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if status.Running {
		t.Fatal("daemon was never started")
	}
	if status.Watcher.IngestDir != h.cfg.Paths.IngestDir {
		t.Fatalf("unexpected ingest dir %q", status.Watcher.IngestDir)
	}
	if status.Watcher.ConfidenceThreshold != h.cfg.Watcher.ConfidenceThreshold {
		t.Fatalf("unexpected threshold %v", status.Watcher.ConfidenceThreshold)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "secret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			if resp.Header.Get(requestIDHeader) == "" {
				t.Fatal("expected a request id header")
			}
		})
	}
}

func TestAPIWatcherConfig(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	var errResp api.ErrorResponse
	bad := map[string]any{"confidence_threshold": 1.5}
	if code := doJSON(t, http.MethodPatch, server.URL+"/api/watcher/config", bad, &errResp); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range threshold, got %d", code)
	}
	if errResp.Kind != string(services.KindValidation) {
		t.Fatalf("expected validation kind, got %q", errResp.Kind)
	}

	if code := doJSON(t, http.MethodPatch, server.URL+"/api/watcher/config", map[string]any{}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", code)
	}
	if code := doJSON(t, http.MethodPatch, server.URL+"/api/watcher/config", map[string]any{"bogus": true}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", code)
	}

	var settings api.WatcherSettings
	update := map[string]any{"auto_ingest": true, "confidence_threshold": 0.9}
	if code := doJSON(t, http.MethodPatch, server.URL+"/api/watcher/config", update, &settings); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !settings.AutoIngest || settings.ConfidenceThreshold != 0.9 || settings.StabilitySeconds != h.cfg.Watcher.StabilitySeconds {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if got := h.daemon.WatcherSettings(); got.ConfidenceThreshold != 0.9 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestAPIPendingNotFound(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	body := api.PendingActionRequest{SourcePath: "/ingest/missing.mkv"}
	for _, action := range []string{"approve", "reject"} {
		var errResp api.ErrorResponse
		if code := doJSON(t, http.MethodPost, server.URL+"/api/pending/"+action, body, &errResp); code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", action, code)
		}
		if errResp.Kind != string(services.KindNotFound) {
			t.Fatalf("%s: expected not_found kind, got %q", action, errResp.Kind)
		}
	}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/pending/approve", api.PendingActionRequest{}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank source path, got %d", code)
	}
}

func TestAPIQueueApproveFlow(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	server := newTestServer(t, h, "")

	source := filepath.Join(h.cfg.Paths.IngestDir, inceptionFile)
	testsupport.WriteFile(t, source, 256)

	var watcherStatus api.WatcherStatus
	if code := doJSON(t, http.MethodPost, server.URL+"/api/watcher/start", nil, &watcherStatus); code != http.StatusOK {
		t.Fatalf("watcher start: expected 200, got %d", code)
	}
	if !watcherStatus.Running {
		t.Fatal("watcher should report running")
	}

	var pending api.PendingListResponse
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		pending = api.PendingListResponse{}
		doJSON(t, http.MethodGet, server.URL+"/api/pending", nil, &pending)
		if len(pending.Items) == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(pending.Items) != 1 {
		t.Fatalf("expected one pending item, got %d", len(pending.Items))
	}
	item := pending.Items[0]
	if item.SourcePath != source || item.CatalogID != inception.ID || item.Filename != inceptionFile {
		t.Fatalf("unexpected pending item %+v", item)
	}
	if item.Confidence < 0.95 {
		t.Fatalf("expected high confidence for the Inception example, got %v", item.Confidence)
	}

	var approved api.PendingActionResponse
	if code := doJSON(t, http.MethodPost, server.URL+"/api/pending/approve", api.PendingActionRequest{SourcePath: source}, &approved); code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d", code)
	}
	if approved.Record == nil || approved.Record.Status != string(history.StatusSuccess) {
		t.Fatalf("expected SUCCESS record, got %+v", approved.Record)
	}
	want := filepath.Join(h.cfg.Paths.MediaRoot, "Movies",
		"Inception (2010) {catalog-27205}", "Inception (2010) {catalog-27205}.mkv")
	if approved.Record.DestinationPath != want {
		t.Fatalf("unexpected destination %q", approved.Record.DestinationPath)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected ingested file: %v", err)
	}

	if code := doJSON(t, http.MethodPost, server.URL+"/api/pending/approve", api.PendingActionRequest{SourcePath: source}, nil); code != http.StatusNotFound {
		t.Fatalf("second approve: expected 404, got %d", code)
	}

	var records api.HistoryListResponse
	if code := doJSON(t, http.MethodGet, server.URL+"/api/history?status=success&catalog_id=27205", nil, &records); code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", code)
	}
	if len(records.Records) != 1 || records.Records[0].SourcePath != source {
		t.Fatalf("unexpected history %+v", records.Records)
	}

	var stats api.HistoryStats
	if code := doJSON(t, http.MethodGet, server.URL+"/api/history/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", code)
	}
	if stats.Total != 1 || stats.ByStatus["SUCCESS"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if code := doJSON(t, http.MethodPost, server.URL+"/api/watcher/stop", nil, &watcherStatus); code != http.StatusOK || watcherStatus.Running {
		t.Fatalf("watcher stop: code %d running %v", code, watcherStatus.Running)
	}
}

func TestAPIHistoryRejectsBadFilters(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	for _, query := range []string{"?status=sideways", "?catalog_id=abc", "?limit=-1"} {
		if code := doJSON(t, http.MethodGet, server.URL+"/api/history"+query, nil, nil); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, code)
		}
	}
}

func TestAPIMatch(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	var resp api.MatchResponse
	req := api.MatchRequest{Paths: []string{"/downloads/" + inceptionFile, " ", "mystery.mkv"}}
	if code := doJSON(t, http.MethodPost, server.URL+"/api/match", req, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected blank input dropped, got %d results", len(resp.Results))
	}
	if !resp.Results[0].Matched || resp.Results[0].Title != "Inception" || resp.Results[0].Year != 2010 {
		t.Fatalf("unexpected first result %+v", resp.Results[0])
	}
	if resp.Results[1].Matched || resp.Results[1].Input != "mystery.mkv" {
		t.Fatalf("unexpected second result %+v", resp.Results[1])
	}

	if code := doJSON(t, http.MethodPost, server.URL+"/api/match", api.MatchRequest{}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty match request, got %d", code)
	}
}

func TestAPITorrentsAndReconcile(t *testing.T) {
	h := newHarness(t)
	server := newTestServer(t, h, "")

	var torrents api.TorrentListResponse
	if code := doJSON(t, http.MethodGet, server.URL+"/api/torrents", nil, &torrents); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(torrents.Torrents) != 0 {
		t.Fatalf("expected no torrents without a poller, got %d", len(torrents.Torrents))
	}

	var report api.ReconcileResponse
	if code := doJSON(t, http.MethodPost, server.URL+"/api/maintenance/reconcile", nil, &report); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if report.Examined != 0 {
		t.Fatalf("expected empty reconcile pass, got %+v", report)
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind services.ErrorKind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindConfiguration, http.StatusServiceUnavailable},
		{services.KindTimeout, http.StatusGatewayTimeout},
		{services.KindTransient, http.StatusBadGateway},
		{services.KindExternal, http.StatusBadGateway},
		{services.KindFatal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusForKind(tc.kind); got != tc.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}
