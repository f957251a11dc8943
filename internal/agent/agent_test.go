package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/providers"
	"github.com/jackzampolin/hrbp/internal/testutil"
)

func loadEmployees(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.LoadFile(testutil.EmployeeCSV(t))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return ds
}

// echoTools records calls and returns a fixed payload.
type echoTools struct {
	calls []string
	fail  bool
}

func (e *echoTools) GetTools() []providers.Tool {
	return []providers.Tool{{Type: "function", Function: providers.ToolFunction{Name: "echo"}}}
}

func (e *echoTools) ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error) {
	e.calls = append(e.calls, name)
	if e.fail {
		return "", errors.New("boom")
	}
	return `{"ok":true}`, nil
}

func TestAgentRun(t *testing.T) {
	t.Run("answer without tools", func(t *testing.T) {
		client := providers.NewMockClient(providers.ChatResult{Content: "Total: 5"})
		a := New(Config{
			Tools:           &echoTools{},
			InitialMessages: []providers.Message{{Role: "user", Content: "q"}},
			Model:           "gpt-4o-mini",
		})

		result, err := a.Run(context.Background(), client)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Output != "Total: 5" || result.Iterations != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
		if got := client.Requests()[0].Model; got != "gpt-4o-mini" {
			t.Errorf("Model = %q, want gpt-4o-mini", got)
		}
	})

	t.Run("tool round trip", func(t *testing.T) {
		tools := &echoTools{}
		client := providers.NewMockClient(
			providers.ToolCallResult("call_1", "echo", `{}`),
			providers.ChatResult{Content: "done"},
		)
		a := New(Config{
			Tools:           tools,
			InitialMessages: []providers.Message{{Role: "user", Content: "q"}},
		})

		result, err := a.Run(context.Background(), client)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Output != "done" || result.Iterations != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(tools.calls) != 1 {
			t.Errorf("expected 1 tool call, got %d", len(tools.calls))
		}

		second := client.Requests()[1].Messages
		if len(second) != 3 {
			t.Fatalf("expected 3 messages in second request, got %d", len(second))
		}
		if second[1].Role != "assistant" || len(second[1].ToolCalls) != 1 {
			t.Errorf("assistant tool call not carried: %+v", second[1])
		}
		if second[2].Role != "tool" || second[2].ToolCallID != "call_1" || second[2].Content != `{"ok":true}` {
			t.Errorf("tool result not carried: %+v", second[2])
		}
	})

	t.Run("tool error reported to model", func(t *testing.T) {
		client := providers.NewMockClient(
			providers.ToolCallResult("call_1", "echo", `{}`),
			providers.ChatResult{Content: "sorry"},
		)
		a := New(Config{Tools: &echoTools{fail: true}})

		if _, err := a.Run(context.Background(), client); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		toolMsg := client.Requests()[1].Messages[1]
		if !strings.Contains(toolMsg.Content, "Tool execution failed: boom") {
			t.Errorf("tool error not surfaced: %q", toolMsg.Content)
		}
	})

	t.Run("malformed arguments reported to model", func(t *testing.T) {
		tools := &echoTools{}
		client := providers.NewMockClient(
			providers.ToolCallResult("call_1", "echo", `{not json`),
			providers.ChatResult{Content: "ok"},
		)
		a := New(Config{Tools: tools})

		if _, err := a.Run(context.Background(), client); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(tools.calls) != 0 {
			t.Errorf("tool should not run with malformed arguments")
		}
		if msg := client.Requests()[1].Messages[1].Content; !strings.Contains(msg, "failed to parse tool arguments") {
			t.Errorf("unexpected tool message: %q", msg)
		}
	})

	t.Run("max iterations", func(t *testing.T) {
		script := make([]providers.ChatResult, 5)
		for i := range script {
			script[i] = providers.ToolCallResult("call", "echo", `{}`)
		}
		client := providers.NewMockClient(script...)
		a := New(Config{Tools: &echoTools{}, MaxIterations: 3})

		result, err := a.Run(context.Background(), client)
		if !errors.Is(err, ErrMaxIterations) {
			t.Fatalf("expected ErrMaxIterations, got %v", err)
		}
		if client.RequestCount() != 3 {
			t.Errorf("RequestCount = %d, want 3", client.RequestCount())
		}
		if result.Success || !result.Exhausted {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("llm error", func(t *testing.T) {
		client := providers.NewMockClient()
		client.ShouldFail = true
		a := New(Config{Tools: &echoTools{}})

		_, err := a.Run(context.Background(), client)
		if err == nil || !strings.Contains(err.Error(), "configured to fail") {
			t.Fatalf("expected client error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := providers.NewMockClient()
		a := New(Config{Tools: &echoTools{}})

		_, err := a.Run(ctx, client)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if client.RequestCount() != 0 {
			t.Errorf("no request expected after cancel")
		}
	})
}

func TestNew_Defaults(t *testing.T) {
	a := New(Config{Tools: &echoTools{}})
	if a.ID() == "" {
		t.Error("expected generated ID")
	}
	if a.maxIterations != DefaultMaxIterations {
		t.Errorf("maxIterations = %d, want %d", a.maxIterations, DefaultMaxIterations)
	}
}

func runTool(t *testing.T, tools *DataframeTools, name, args string) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		t.Fatalf("bad test args: %v", err)
	}
	out, err := tools.ExecuteTool(context.Background(), name, parsed)
	if err != nil {
		t.Fatalf("ExecuteTool(%s) error = %v", name, err)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("tool output is not JSON: %v", err)
	}
	return result
}

func TestDataframeTools(t *testing.T) {
	tools, err := NewDataframeTools(loadEmployees(t))
	if err != nil {
		t.Fatalf("NewDataframeTools() error = %v", err)
	}

	t.Run("definitions", func(t *testing.T) {
		defs := tools.GetTools()
		var names []string
		for _, d := range defs {
			names = append(names, d.Function.Name)
			if !json.Valid(d.Function.Parameters) {
				t.Errorf("%s parameters are not valid JSON", d.Function.Name)
			}
		}
		if strings.Join(names, ",") != "describe_dataframe,query_rows,aggregate,value_counts" {
			t.Errorf("tool order = %v", names)
		}
	})

	t.Run("describe", func(t *testing.T) {
		out := runTool(t, tools, ToolDescribeDataframe, `{}`)
		if out["rows"].(float64) != 5 {
			t.Errorf("rows = %v", out["rows"])
		}
		cols := out["columns"].([]any)
		salary := cols[2].(map[string]any)
		if salary["name"] != "Salary" || salary["numeric"] != true {
			t.Errorf("salary summary = %v", salary)
		}
		dept := cols[1].(map[string]any)
		if dept["numeric"] != false {
			t.Errorf("department should not be numeric")
		}
	})

	t.Run("query rows filtered and sorted", func(t *testing.T) {
		out := runTool(t, tools, ToolQueryRows, `{
			"filters": [{"column": "Department", "op": "eq", "value": "retail banking"}],
			"columns": ["Employee Name", "Salary"],
			"sort_by": "Salary",
			"descending": true
		}`)
		rows := out["rows"].([]any)
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		first := rows[0].(map[string]any)
		if first["Employee Name"] != "Carol White" || first["Salary"] != "91000" {
			t.Errorf("first row = %v", first)
		}
		if _, ok := first["Department"]; ok {
			t.Errorf("unselected column returned")
		}
	})

	t.Run("query rows numeric filter and limit", func(t *testing.T) {
		out := runTool(t, tools, ToolQueryRows, `{
			"filters": [{"column": "Performance Rating", "op": "gte", "value": 4}],
			"limit": 2
		}`)
		if out["total_matches"].(float64) != 3 || out["returned"].(float64) != 2 {
			t.Errorf("unexpected counts: %v / %v", out["total_matches"], out["returned"])
		}
	})

	t.Run("aggregate mean", func(t *testing.T) {
		out := runTool(t, tools, ToolAggregate, `{"operation": "mean", "column": "Salary"}`)
		if out["result"].(float64) != 74200 {
			t.Errorf("mean = %v, want 74200", out["result"])
		}
	})

	t.Run("aggregate grouped", func(t *testing.T) {
		out := runTool(t, tools, ToolAggregate, `{"operation": "max", "column": "Salary", "group_by": "Department"}`)
		groups := out["groups"].([]any)
		if len(groups) != 3 {
			t.Fatalf("expected 3 groups, got %d", len(groups))
		}
		first := groups[0].(map[string]any)
		if first["key"] != "Retail Banking" || first["value"].(float64) != 91000 {
			t.Errorf("first group = %v", first)
		}
	})

	t.Run("aggregate count with filter", func(t *testing.T) {
		out := runTool(t, tools, ToolAggregate, `{
			"operation": "count",
			"filters": [{"column": "Department", "op": "contains", "value": "oper"}]
		}`)
		if out["result"].(float64) != 2 {
			t.Errorf("count = %v, want 2", out["result"])
		}
	})

	t.Run("value counts", func(t *testing.T) {
		out := runTool(t, tools, ToolValueCounts, `{"column": "Department"}`)
		counts := out["counts"].([]any)
		if len(counts) != 3 {
			t.Fatalf("expected 3 values, got %d", len(counts))
		}
		first := counts[0].(map[string]any)
		// ties broken by value
		if first["value"] != "Operations" || first["count"].(float64) != 2 {
			t.Errorf("first = %v", first)
		}
	})

	t.Run("schema violations", func(t *testing.T) {
		cases := []struct {
			name string
			tool string
			args map[string]any
		}{
			{"unknown op", ToolQueryRows, map[string]any{"filters": []any{map[string]any{"column": "Salary", "op": "like", "value": "x"}}}},
			{"missing operation", ToolAggregate, map[string]any{"column": "Salary"}},
			{"extra field", ToolDescribeDataframe, map[string]any{"verbose": true}},
			{"limit too large", ToolQueryRows, map[string]any{"limit": float64(1000)}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := tools.ExecuteTool(context.Background(), tc.tool, tc.args); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := tools.ExecuteTool(context.Background(), ToolValueCounts, map[string]any{"column": "Bonus"})
		if err == nil || !strings.Contains(err.Error(), `unknown column "Bonus"`) {
			t.Errorf("expected unknown column error, got %v", err)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		if _, err := tools.ExecuteTool(context.Background(), "drop_table", nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestDataframeTools_InfiniteCells(t *testing.T) {
	ds := dataset.New([]string{"Score"}, [][]string{{"1"}, {"inf"}, {"2"}, {"-Infinity"}})
	tools, err := NewDataframeTools(ds)
	if err != nil {
		t.Fatalf("NewDataframeTools() error = %v", err)
	}

	for _, tc := range []struct {
		op   string
		want float64
	}{
		{"sum", 3},
		{"max", 2},
		{"min", 1},
	} {
		got := runTool(t, tools, ToolAggregate, `{"operation":"`+tc.op+`","column":"Score"}`)
		if got["result"] != tc.want {
			t.Errorf("%s = %v, want %v", tc.op, got["result"], tc.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"85000", 85000, true},
		{" $1,200.50 ", 1200.5, true},
		{"85%", 85, true},
		{"", 0, false},
		{"Retail", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDataframeAgentRespond(t *testing.T) {
	ds := loadEmployees(t)
	client := providers.NewMockClient(
		providers.ToolCallResult("call_1", ToolAggregate, `{"operation":"max","column":"Salary"}`),
		providers.ChatResult{Content: "Highest salary: 91000"},
	)

	a, err := NewDataframeAgent(DataframeAgentConfig{Client: client, MaxIterations: 5})
	if err != nil {
		t.Fatalf("NewDataframeAgent() error = %v", err)
	}

	got, err := a.Respond(context.Background(), "instruction text", ds)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != "Highest salary: 91000" {
		t.Errorf("Respond() = %q", got)
	}

	first := client.Requests()[0].Messages
	if first[0].Role != "system" || !strings.HasPrefix(first[0].Content, "You are an HR Business Partner AI.") {
		t.Errorf("unexpected system message: %+v", first[0])
	}
	if first[1].Role != "user" || first[1].Content != "instruction text" {
		t.Errorf("unexpected user message: %+v", first[1])
	}
	toolMsg := client.Requests()[1].Messages[3]
	if !strings.Contains(toolMsg.Content, `"result":91000`) {
		t.Errorf("tool output = %q", toolMsg.Content)
	}
	if len(client.LastTools()) != 4 {
		t.Errorf("expected 4 tools offered, got %d", len(client.LastTools()))
	}
}

func TestDataframeAgentRespond_Error(t *testing.T) {
	client := providers.NewMockClient()
	client.ShouldFail = true
	a, _ := NewDataframeAgent(DataframeAgentConfig{Client: client})

	if _, err := a.Respond(context.Background(), "q", loadEmployees(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewDataframeAgent_RequiresClient(t *testing.T) {
	if _, err := NewDataframeAgent(DataframeAgentConfig{}); err == nil {
		t.Fatal("expected error")
	}
}
