package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/hrbp"
	"github.com/jackzampolin/hrbp/internal/testutil"
)

func newResponder(t *testing.T) *hrbp.Responder {
	t.Helper()

	ds, err := dataset.LoadFile(testutil.EmployeeCSV(t))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	r, err := hrbp.New(hrbp.Config{
		Dataset: ds,
		Delegate: hrbp.DelegateFunc(func(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
			return "Carol White has the highest rating.", nil
		}),
	})
	if err != nil {
		t.Fatalf("hrbp.New() error = %v", err)
	}
	return r
}

func postChat(t *testing.T, h http.Handler, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/chat/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Chat(t *testing.T) {
	srv, err := New(Config{Responder: newResponder(t), Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := srv.Handler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		want       string
	}{
		{"count", `{"message":"What is the total employees figure?"}`, http.StatusOK, "reply", "Total Employees: 5"},
		{"delegate", `{"message":"Who has the top rating?"}`, http.StatusOK, "reply", "Carol White has the highest rating."},
		{"empty", `{"message":""}`, http.StatusBadRequest, "error", "Message is required"},
		{"no body", ``, http.StatusBadRequest, "error", "Message is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, h, tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got[tt.wantField] != tt.want {
				t.Errorf("%s = %q, want %q", tt.wantField, got[tt.wantField], tt.want)
			}
		})
	}
}

func TestServer_NotInitialized(t *testing.T) {
	srv, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := postChat(t, srv.Handler(), `{"message":"hello"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestServer_RequestID(t *testing.T) {
	srv, err := New(Config{Responder: newResponder(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := srv.Handler()

	t.Run("generated", func(t *testing.T) {
		rec := postChat(t, h, `{"message":"how many employees"}`, nil)
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a generated request id")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		header := http.Header{}
		header.Set(RequestIDHeader, "abc-123")
		rec := postChat(t, h, `{"message":"how many employees"}`, header)
		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("request id = %q, want abc-123", got)
		}
	})

	t.Run("non-canonical header key", func(t *testing.T) {
		rec := postChat(t, h, `{"message":"how many employees"}`, http.Header{"x-request-id": {"lower-1"}})
		if got := rec.Header().Get(RequestIDHeader); got != "lower-1" {
			t.Errorf("request id = %q, want lower-1", got)
		}
	})
}

func TestServer_CORS(t *testing.T) {
	srv, err := New(Config{
		Responder:   newResponder(t),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := httptest.NewRequest("OPTIONS", "/api/chat/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = postChat(t, srv.Handler(), `{"message":"how many employees"}`, http.Header{"Origin": {"http://evil.example"}})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin allowed: %q", got)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	srv, err := New(Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Responder: newResponder(t),
		Logger:    cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	if err := testutil.WaitForServer(ctx, cfg.URL(), 5*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	resp, err := http.Post(cfg.URL()+"/api/chat/", "application/json", strings.NewReader(`{"message":"employee count"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	var got map[string]string
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got["reply"] != "Total Employees: 5" {
		t.Errorf("reply = %q", got["reply"])
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
