// Package hrbp answers HR questions about a loaded dataset. Fixed trigger
// phrases are answered directly from the data; everything else is handed to
// a model-backed delegate.
package hrbp

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackzampolin/hrbp/internal/dataset"
	hrbpprompts "github.com/jackzampolin/hrbp/internal/prompts/hrbp"
)

// RouteDelegate is the Classify result for questions no route claims.
const RouteDelegate = "delegate"

// Delegate answers an instruction using the dataset, typically by calling
// a remote language model.
type Delegate interface {
	Respond(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error)
}

// Route is a deterministic answer selected when the lowercased question
// contains any of its phrases. Phrases must be lowercase.
type Route struct {
	Name    string
	Phrases []string
	Answer  func(ds *dataset.Dataset) string
}

// matches reports whether q (already lowercased) contains any phrase.
func (r Route) matches(q string) bool {
	return containsAny(q, r.Phrases)
}

// DefaultRoutes returns the built-in routes in evaluation order.
func DefaultRoutes() []Route {
	return []Route{
		{
			Name: "list_employees",
			Phrases: []string{
				"employee names",
				"list of employees",
				"all employees",
				"employees' names",
				"who are the employees",
			},
			Answer: listEmployees,
		},
		{
			Name: "employee_count",
			Phrases: []string{
				"how many employees",
				"total employees",
				"number of employees",
				"employee count",
			},
			Answer: countEmployees,
		},
	}
}

// DefaultTablePhrases returns the phrases that mark a request for tabular output.
func DefaultTablePhrases() []string {
	return []string{"table", "tabular", "dataframe", "show in table", "display table"}
}

func listEmployees(ds *dataset.Dataset) string {
	names, ok := ds.Column(dataset.EmployeeNameColumn)
	if !ok {
		return "Employee Name column not found in the dataset."
	}
	return "Employees:\n" + strings.Join(names, "\n")
}

func countEmployees(ds *dataset.Dataset) string {
	return "Total Employees: " + strconv.Itoa(ds.Len())
}

// RemoteError wraps a failure of the delegate.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return "remote model delegation failed: " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Config configures a Responder.
type Config struct {
	Dataset      *dataset.Dataset // required
	Delegate     Delegate         // required
	Routes       []Route          // DefaultRoutes() when nil
	TablePhrases []string         // DefaultTablePhrases() when nil
	Logger       *slog.Logger
}

// Responder turns a question into a reply. It is safe for concurrent use.
type Responder struct {
	ds           *dataset.Dataset
	delegate     Delegate
	routes       []Route
	tablePhrases []string
	logger       *slog.Logger
}

// New creates a Responder.
func New(cfg Config) (*Responder, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("hrbp: dataset is required")
	}
	if cfg.Delegate == nil {
		return nil, errors.New("hrbp: delegate is required")
	}
	if cfg.Routes == nil {
		cfg.Routes = DefaultRoutes()
	}
	if cfg.TablePhrases == nil {
		cfg.TablePhrases = DefaultTablePhrases()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Responder{
		ds:           cfg.Dataset,
		delegate:     cfg.Delegate,
		routes:       cfg.Routes,
		tablePhrases: cfg.TablePhrases,
		logger:       cfg.Logger,
	}, nil
}

// Dataset returns the dataset the responder answers from.
func (r *Responder) Dataset() *dataset.Dataset {
	return r.ds
}

// Classify returns the name of the first route matching question, or
// RouteDelegate.
func (r *Responder) Classify(question string) string {
	if route, ok := r.match(strings.ToLower(question)); ok {
		return route.Name
	}
	return RouteDelegate
}

// WantsTable reports whether question asks for tabular output.
func (r *Responder) WantsTable(question string) bool {
	return containsAny(strings.ToLower(question), r.tablePhrases)
}

// WantsTable reports whether question asks for tabular output using the
// default phrases.
func WantsTable(question string) bool {
	return containsAny(strings.ToLower(question), DefaultTablePhrases())
}

// Ask answers question. Route answers never reach the delegate. Delegate
// failures are returned as *RemoteError.
func (r *Responder) Ask(ctx context.Context, question string) (string, error) {
	q := strings.ToLower(question)

	if route, ok := r.match(q); ok {
		r.logger.Debug("answered from route", "route", route.Name)
		return route.Answer(r.ds), nil
	}

	wantsTable := containsAny(q, r.tablePhrases)
	instruction := hrbpprompts.UserPrompt(question, wantsTable)

	r.logger.Debug("delegating question", "wants_table", wantsTable)
	reply, err := r.delegate.Respond(ctx, instruction, r.ds)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	return reply, nil
}

func (r *Responder) match(q string) (Route, bool) {
	for _, route := range r.routes {
		if route.matches(q) {
			return route, true
		}
	}
	return Route{}, false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// DelegateFunc adapts a function to the Delegate interface.
type DelegateFunc func(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error)

// Respond calls f.
func (f DelegateFunc) Respond(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
	return f(ctx, instruction, ds)
}

var _ Delegate = DelegateFunc(nil)

