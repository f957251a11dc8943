package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/hrbp/internal/api"
	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/hrbp"
	"github.com/jackzampolin/hrbp/internal/prompts"
	hrbpprompts "github.com/jackzampolin/hrbp/internal/prompts/hrbp"
	"github.com/jackzampolin/hrbp/internal/svcctx"
	"github.com/jackzampolin/hrbp/internal/testutil"
)

// newHandler registers every endpoint on a mux and injects services the way
// the server does.
func newHandler(t *testing.T, services *svcctx.Services) http.Handler {
	t.Helper()

	reg := api.NewRegistry()
	for _, ep := range All() {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if services.Responder == nil {
				writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
				return
			}
			next(w, r)
		}
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), services)
		ctx = svcctx.WithRequestID(ctx, "test-request")
		mux.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newServices(t *testing.T, delegate hrbp.DelegateFunc) *svcctx.Services {
	t.Helper()

	ds, err := dataset.LoadFile(testutil.EmployeeCSV(t))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if delegate == nil {
		delegate = func(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
			return "delegated", nil
		}
	}
	responder, err := hrbp.New(hrbp.Config{Dataset: ds, Delegate: delegate})
	if err != nil {
		t.Fatalf("hrbp.New() error = %v", err)
	}

	reg := prompts.NewRegistry(nil)
	hrbpprompts.RegisterPrompts(reg)

	return &svcctx.Services{
		Responder: responder,
		Dataset:   ds,
		Prompts:   reg,
		Model:     "test-model",
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestChatEndpoint(t *testing.T) {
	var gotInstruction string
	h := newHandler(t, newServices(t, func(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
		gotInstruction = instruction
		return "Average salary is 74200.", nil
	}))

	t.Run("count route", func(t *testing.T) {
		rec := do(t, h, "POST", "/api/chat/", `{"message":"How many employees do we have?"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if got := decode[ChatResponse](t, rec).Reply; got != "Total Employees: 5" {
			t.Errorf("reply = %q", got)
		}
	})

	t.Run("list route", func(t *testing.T) {
		rec := do(t, h, "POST", "/api/chat/", `{"message":"give me all employees"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		want := "Employees:\nAlice Smith\nBob Jones\nCarol White\nDan Brown\nEve Black"
		if got := decode[ChatResponse](t, rec).Reply; got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	})

	t.Run("delegated", func(t *testing.T) {
		rec := do(t, h, "POST", "/api/chat/", `{"message":"Average salary in a table"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decode[ChatResponse](t, rec).Reply; got != "Average salary is 74200." {
			t.Errorf("reply = %q", got)
		}
		if !strings.Contains(gotInstruction, "Use a clean Markdown table.") {
			t.Errorf("instruction missing table directive: %q", gotInstruction)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		for _, body := range []string{``, `{}`, `{"message":""}`} {
			rec := do(t, h, "POST", "/api/chat/", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: status = %d, want 400", body, rec.Code)
				continue
			}
			if got := decode[ErrorResponse](t, rec).Error; got != ErrMessageRequired {
				t.Errorf("body %q: error = %q", body, got)
			}
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		for _, body := range []string{`{"message":`, `{"message":42}`, `not json`} {
			rec := do(t, h, "POST", "/api/chat/", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: status = %d, want 400", body, rec.Code)
			}
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := do(t, h, "GET", "/api/chat/", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestChatEndpoint_RemoteFailure(t *testing.T) {
	h := newHandler(t, newServices(t, func(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
		return "", errors.New("upstream unavailable")
	}))

	rec := do(t, h, "POST", "/api/chat/", `{"message":"Who has the highest rating?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec).Error; !strings.Contains(got, "upstream unavailable") {
		t.Errorf("error = %q", got)
	}
}

func TestChatEndpoint_NotInitialized(t *testing.T) {
	h := newHandler(t, &svcctx.Services{})

	rec := do(t, h, "POST", "/api/chat/", `{"message":"how many employees"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		h := newHandler(t, newServices(t, nil))

		rec := do(t, h, "GET", "/health", "")
		if rec.Code != http.StatusOK || decode[HealthResponse](t, rec).Status != "ok" {
			t.Errorf("health: status = %d, body = %s", rec.Code, rec.Body.String())
		}

		rec = do(t, h, "GET", "/ready", "")
		if rec.Code != http.StatusOK {
			t.Errorf("ready: status = %d", rec.Code)
		}

		rec = do(t, h, "GET", "/status", "")
		status := decode[StatusResponse](t, rec)
		if status.Responder != "ready" || status.Model != "test-model" {
			t.Errorf("status = %+v", status)
		}
		if status.Dataset == nil || status.Dataset.Rows != 5 || status.Dataset.Format != "csv" {
			t.Errorf("dataset = %+v", status.Dataset)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		h := newHandler(t, &svcctx.Services{})

		rec := do(t, h, "GET", "/health", "")
		if rec.Code != http.StatusOK {
			t.Errorf("health: status = %d", rec.Code)
		}

		rec = do(t, h, "GET", "/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("ready: status = %d, want 503", rec.Code)
		}
		if got := decode[HealthResponse](t, rec).Status; got != "degraded" {
			t.Errorf("ready: status = %q", got)
		}

		rec = do(t, h, "GET", "/status", "")
		if got := decode[StatusResponse](t, rec); got.Responder != "not_initialized" || got.Dataset != nil {
			t.Errorf("status = %+v", got)
		}
	})
}

func TestDatasetEndpoint(t *testing.T) {
	h := newHandler(t, newServices(t, nil))

	rec := do(t, h, "GET", "/api/dataset?preview=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[DatasetResponse](t, rec)
	if resp.Rows != 5 {
		t.Errorf("rows = %d", resp.Rows)
	}
	wantCols := []string{"Employee Name", "Department", "Salary", "Performance Rating"}
	if strings.Join(resp.Columns, "|") != strings.Join(wantCols, "|") {
		t.Errorf("columns = %v", resp.Columns)
	}
	if len(resp.Preview) != 2 || resp.Preview[0]["Employee Name"] != "Alice Smith" {
		t.Errorf("preview = %v", resp.Preview)
	}

	rec = do(t, h, "GET", "/api/dataset?preview=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid preview: status = %d, want 400", rec.Code)
	}
}

func TestPromptEndpoints(t *testing.T) {
	h := newHandler(t, newServices(t, nil))

	rec := do(t, h, "GET", "/api/prompts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	list := decode[PromptsListResponse](t, rec)
	if len(list.Prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(list.Prompts))
	}

	rec = do(t, h, "GET", "/api/prompts/"+hrbpprompts.UserPromptKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	p := decode[PromptResponse](t, rec)
	if !strings.Contains(p.Text, "{{.Question}}") {
		t.Errorf("text = %q", p.Text)
	}

	rec = do(t, h, "GET", "/api/prompts/no.such.prompt", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}
}

func TestPageEndpoint(t *testing.T) {
	h := newHandler(t, newServices(t, nil))

	rec := do(t, h, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "employees.csv") {
		t.Errorf("page does not name the dataset")
	}

	rec = do(t, h, "GET", "/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: status = %d, want 404", rec.Code)
	}
}

func TestSwaggerEndpoint(t *testing.T) {
	h := newHandler(t, &svcctx.Services{})

	rec := do(t, h, "GET", "/swagger.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var spec map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("spec is not JSON: %v", err)
	}
	paths, _ := spec["paths"].(map[string]any)
	if _, ok := paths["/api/chat/"]; !ok {
		t.Errorf("spec missing /api/chat/")
	}
}

func TestPromptCommands(t *testing.T) {
	cmd := PromptCommands(func() string { return "http://localhost:8080" })
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "get,list" {
		t.Errorf("subcommands = %v", names)
	}
}
