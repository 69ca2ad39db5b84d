package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidharon/gemini-transcriptioner/internal/pipeline"
	"github.com/tidharon/gemini-transcriptioner/internal/quota"
)

func newTestServer(t *testing.T) (*HTTPServer, *pipeline.EventBus, *quota.Ledger) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, err := quota.NewLedger(quota.NewMemStore(), logger)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	events := pipeline.NewEventBus(100)
	server := NewHTTPServer(HTTPServerConfig{Address: "127.0.0.1", Port: 0}, logger, events, ledger, nil)
	return server, events, ledger
}

func doRequest(t *testing.T, server *HTTPServer, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, events, _ := newTestServer(t)
	events.Publish(pipeline.Event{Stage: pipeline.StageTranscribing, Percent: 40, Message: "Transcribing segment 2/5"})

	rec := doRequest(t, server, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
	run, ok := body["run"].(map[string]interface{})
	if !ok {
		t.Fatalf("run field missing: %v", body)
	}
	if run["stage"] != pipeline.StageTranscribing {
		t.Errorf("run stage = %v", run["stage"])
	}
}

func TestHealthRejectsPost(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodPost, "/health")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestProgressEndpointSinceFilter(t *testing.T) {
	server, events, _ := newTestServer(t)
	for i := 0; i < 4; i++ {
		events.Publish(pipeline.Event{Stage: pipeline.StageProcessing})
	}

	rec := doRequest(t, server, http.MethodGet, "/progress?since=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Count  int              `json:"count"`
		Events []pipeline.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if len(body.Events) != 2 || body.Events[0].Seq != 3 {
		t.Errorf("events = %+v", body.Events)
	}
}

func TestProgressEndpointRejectsBadSince(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/progress?since=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQuotaEndpoint(t *testing.T) {
	server, _, ledger := newTestServer(t)
	if err := ledger.Register("acct-a", 1000); err != nil {
		t.Fatal(err)
	}
	if err := ledger.RecordUsage("acct-a", 250); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, server, http.MethodGet, "/quota")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Accounts []quota.AccountSummary `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Accounts) != 1 {
		t.Fatalf("accounts = %+v", body.Accounts)
	}
	if body.Accounts[0].DailyUsage != 250 {
		t.Errorf("daily usage = %d, want 250", body.Accounts[0].DailyUsage)
	}
}
