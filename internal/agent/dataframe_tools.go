package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/providers"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool names exposed to the model.
const (
	ToolDescribeDataframe = "describe_dataframe"
	ToolQueryRows         = "query_rows"
	ToolAggregate         = "aggregate"
	ToolValueCounts       = "value_counts"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
	sampleValues      = 3
)

const filtersSchema = `{
	"type": "array",
	"description": "Row filters, all of which must match",
	"items": {
		"type": "object",
		"properties": {
			"column": {"type": "string"},
			"op": {"type": "string", "enum": ["eq", "ne", "contains", "gt", "gte", "lt", "lte"]},
			"value": {"type": ["string", "number", "boolean"]}
		},
		"required": ["column", "op", "value"],
		"additionalProperties": false
	}
}`

var toolSchemas = map[string]string{
	ToolDescribeDataframe: `{
		"type": "object",
		"properties": {},
		"additionalProperties": false
	}`,
	ToolQueryRows: `{
		"type": "object",
		"properties": {
			"filters": ` + filtersSchema + `,
			"columns": {"type": "array", "items": {"type": "string"}, "description": "Columns to return (all when omitted)"},
			"sort_by": {"type": "string"},
			"descending": {"type": "boolean"},
			"limit": {"type": "integer", "minimum": 1, "maximum": 500}
		},
		"additionalProperties": false
	}`,
	ToolAggregate: `{
		"type": "object",
		"properties": {
			"operation": {"type": "string", "enum": ["count", "sum", "mean", "min", "max", "nunique"]},
			"column": {"type": "string"},
			"group_by": {"type": "string"},
			"filters": ` + filtersSchema + `
		},
		"required": ["operation"],
		"additionalProperties": false
	}`,
	ToolValueCounts: `{
		"type": "object",
		"properties": {
			"column": {"type": "string"},
			"filters": ` + filtersSchema + `,
			"limit": {"type": "integer", "minimum": 1}
		},
		"required": ["column"],
		"additionalProperties": false
	}`,
}

var toolDescriptions = map[string]string{
	ToolDescribeDataframe: "Describe the employee dataframe: row count, column names, whether each column is numeric, and sample values.",
	ToolQueryRows:         "Return rows of the dataframe, optionally filtered, projected to selected columns, sorted and limited.",
	ToolAggregate:         "Compute count, sum, mean, min, max or nunique over a column, optionally grouped by another column and filtered.",
	ToolValueCounts:       "Count occurrences of each distinct value in a column, most frequent first.",
}

// toolOrder fixes the order tools are offered to the model.
var toolOrder = []string{ToolDescribeDataframe, ToolQueryRows, ToolAggregate, ToolValueCounts}

// DataframeTools exposes read-only dataset operations to the model.
type DataframeTools struct {
	ds      *dataset.Dataset
	schemas map[string]*jsonschema.Schema
}

// NewDataframeTools binds the tool set to ds.
func NewDataframeTools(ds *dataset.Dataset) (*DataframeTools, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is required")
	}

	compiler := jsonschema.NewCompiler()
	schemas := make(map[string]*jsonschema.Schema, len(toolSchemas))
	for _, name := range toolOrder {
		url := name + ".json"
		if err := compiler.AddResource(url, strings.NewReader(toolSchemas[name])); err != nil {
			return nil, fmt.Errorf("failed to load %s schema: %w", name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		schemas[name] = schema
	}

	return &DataframeTools{ds: ds, schemas: schemas}, nil
}

// GetTools returns the tool definitions in a stable order.
func (t *DataframeTools) GetTools() []providers.Tool {
	tools := make([]providers.Tool, 0, len(toolOrder))
	for _, name := range toolOrder {
		var compact bytes.Buffer
		_ = json.Compact(&compact, []byte(toolSchemas[name]))
		tools = append(tools, providers.Tool{
			Type: "function",
			Function: providers.ToolFunction{
				Name:        name,
				Description: toolDescriptions[name],
				Parameters:  json.RawMessage(compact.Bytes()),
			},
		})
	}
	return tools
}

// ExecuteTool validates arguments against the tool's schema and runs it.
func (t *DataframeTools) ExecuteTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	schema, ok := t.schemas[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	if err := schema.Validate(arguments); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	var (
		out any
		err error
	)
	switch name {
	case ToolDescribeDataframe:
		out = t.describe()
	case ToolQueryRows:
		out, err = t.queryRows(arguments)
	case ToolAggregate:
		out, err = t.aggregate(arguments)
	case ToolValueCounts:
		out, err = t.valueCounts(arguments)
	}
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", name, err)
	}
	return string(b), nil
}

type columnSummary struct {
	Name     string   `json:"name"`
	Numeric  bool     `json:"numeric"`
	NonEmpty int      `json:"non_empty"`
	Samples  []string `json:"samples"`
}

func (t *DataframeTools) describe() map[string]any {
	cols := make([]columnSummary, 0, len(t.ds.Columns()))
	for _, name := range t.ds.Columns() {
		values, _ := t.ds.Column(name)
		s := columnSummary{Name: name, Numeric: true, Samples: []string{}}
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			s.NonEmpty++
			if _, ok := parseNumber(v); !ok {
				s.Numeric = false
			}
			if len(s.Samples) < sampleValues {
				s.Samples = append(s.Samples, v)
			}
		}
		if s.NonEmpty == 0 {
			s.Numeric = false
		}
		cols = append(cols, s)
	}
	return map[string]any{
		"rows":    t.ds.Len(),
		"columns": cols,
	}
}

type filter struct {
	Column string
	Op     string
	Value  string
}

func (t *DataframeTools) parseFilters(raw any) ([]filter, error) {
	items, _ := raw.([]any)
	filters := make([]filter, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		f := filter{
			Column: stringArg(m, "column"),
			Op:     stringArg(m, "op"),
			Value:  scalarString(m["value"]),
		}
		if err := t.requireColumn(f.Column); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// matchingRows returns row indexes that satisfy every filter.
func (t *DataframeTools) matchingRows(filters []filter) []int {
	rows := make([]int, 0, t.ds.Len())
	for i := 0; i < t.ds.Len(); i++ {
		keep := true
		for _, f := range filters {
			v, _ := t.ds.Value(i, f.Column)
			if !f.match(v) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, i)
		}
	}
	return rows
}

func (f filter) match(v string) bool {
	left := strings.TrimSpace(v)
	right := strings.TrimSpace(f.Value)
	ln, lok := parseNumber(left)
	rn, rok := parseNumber(right)
	numeric := lok && rok

	switch f.Op {
	case "eq":
		if numeric {
			return ln == rn
		}
		return strings.EqualFold(left, right)
	case "ne":
		if numeric {
			return ln != rn
		}
		return !strings.EqualFold(left, right)
	case "contains":
		return strings.Contains(strings.ToLower(left), strings.ToLower(right))
	case "gt", "gte", "lt", "lte":
		if !numeric {
			return false
		}
		switch f.Op {
		case "gt":
			return ln > rn
		case "gte":
			return ln >= rn
		case "lt":
			return ln < rn
		default:
			return ln <= rn
		}
	}
	return false
}

func (t *DataframeTools) queryRows(args map[string]any) (map[string]any, error) {
	filters, err := t.parseFilters(args["filters"])
	if err != nil {
		return nil, err
	}

	columns := stringSliceArg(args, "columns")
	if len(columns) == 0 {
		columns = t.ds.Columns()
	}
	for _, c := range columns {
		if err := t.requireColumn(c); err != nil {
			return nil, err
		}
	}

	rows := t.matchingRows(filters)

	if sortBy := stringArg(args, "sort_by"); sortBy != "" {
		if err := t.requireColumn(sortBy); err != nil {
			return nil, err
		}
		descending, _ := args["descending"].(bool)
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := t.ds.Value(rows[i], sortBy)
			b, _ := t.ds.Value(rows[j], sortBy)
			if descending {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}

	limit := intArg(args, "limit", defaultQueryLimit)
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		record := make(map[string]string, len(columns))
		for _, c := range columns {
			record[c], _ = t.ds.Value(r, c)
		}
		out = append(out, record)
	}

	return map[string]any{
		"total_matches": total,
		"returned":      len(out),
		"columns":       columns,
		"rows":          out,
	}, nil
}

type groupResult struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

func (t *DataframeTools) aggregate(args map[string]any) (map[string]any, error) {
	op := stringArg(args, "operation")
	column := stringArg(args, "column")
	if column == "" && op != "count" {
		return nil, fmt.Errorf("operation %s requires a column", op)
	}
	if column != "" {
		if err := t.requireColumn(column); err != nil {
			return nil, err
		}
	}

	filters, err := t.parseFilters(args["filters"])
	if err != nil {
		return nil, err
	}
	rows := t.matchingRows(filters)

	groupBy := stringArg(args, "group_by")
	if groupBy == "" {
		value, err := t.reduce(op, column, rows)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"operation": op,
			"column":    column,
			"rows":      len(rows),
			"result":    value,
		}, nil
	}

	if err := t.requireColumn(groupBy); err != nil {
		return nil, err
	}
	var keys []string
	groups := make(map[string][]int)
	for _, r := range rows {
		k, _ := t.ds.Value(r, groupBy)
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}

	results := make([]groupResult, 0, len(keys))
	for _, k := range keys {
		value, err := t.reduce(op, column, groups[k])
		if err != nil {
			return nil, err
		}
		results = append(results, groupResult{Key: k, Value: value})
	}

	return map[string]any{
		"operation": op,
		"column":    column,
		"group_by":  groupBy,
		"groups":    results,
	}, nil
}

func (t *DataframeTools) reduce(op, column string, rows []int) (float64, error) {
	switch op {
	case "count":
		if column == "" {
			return float64(len(rows)), nil
		}
		n := 0
		for _, r := range rows {
			if v, _ := t.ds.Value(r, column); strings.TrimSpace(v) != "" {
				n++
			}
		}
		return float64(n), nil
	case "nunique":
		seen := make(map[string]struct{})
		for _, r := range rows {
			v, _ := t.ds.Value(r, column)
			if strings.TrimSpace(v) != "" {
				seen[v] = struct{}{}
			}
		}
		return float64(len(seen)), nil
	}

	var nums []float64
	for _, r := range rows {
		v, _ := t.ds.Value(r, column)
		if n, ok := parseNumber(v); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("column %q has no numeric values for %s", column, op)
	}

	switch op {
	case "sum", "mean":
		var total float64
		for _, n := range nums {
			total += n
		}
		if op == "mean" {
			return total / float64(len(nums)), nil
		}
		return total, nil
	case "min":
		m := math.Inf(1)
		for _, n := range nums {
			m = math.Min(m, n)
		}
		return m, nil
	case "max":
		m := math.Inf(-1)
		for _, n := range nums {
			m = math.Max(m, n)
		}
		return m, nil
	}
	return 0, fmt.Errorf("unsupported operation: %s", op)
}

type valueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func (t *DataframeTools) valueCounts(args map[string]any) (map[string]any, error) {
	column := stringArg(args, "column")
	if err := t.requireColumn(column); err != nil {
		return nil, err
	}
	filters, err := t.parseFilters(args["filters"])
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range t.matchingRows(filters) {
		v, _ := t.ds.Value(r, column)
		counts[v]++
	}

	out := make([]valueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, valueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if limit := intArg(args, "limit", 0); limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return map[string]any{
		"column": column,
		"counts": out,
	}, nil
}

func (t *DataframeTools) requireColumn(name string) error {
	if !t.ds.HasColumn(name) {
		return fmt.Errorf("unknown column %q (available: %s)", name, strings.Join(t.ds.Columns(), ", "))
	}
	return nil
}

// parseNumber accepts plain numbers plus common currency and percent
// formatting ("$1,200.50", "85%"). NaN and infinities are not numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// lessValue orders numerically when both sides are numbers, else by
// case-insensitive text.
func lessValue(a, b string) bool {
	an, aok := parseNumber(a)
	bn, bok := parseNumber(b)
	if aok && bok {
		return an < bn
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intArg(args map[string]any, key string, def int) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return def
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}
