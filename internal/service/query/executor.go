// Package query drives query generation, execution against the mock
// engine and result export. Conversation mutations are delegated to the
// session manager; results and the active query stay transient here.
package query

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/querypilot/backend/internal/mockdb"
	"github.com/querypilot/backend/internal/model/query"
	"github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/internal/service/translate"
)

var (
	// ErrEmptyInput is returned when a generation request has no text.
	ErrEmptyInput = errors.New("message text is empty")
	// ErrNoQuery is returned when an execution request has no query.
	ErrNoQuery = errors.New("query text is empty")
	// ErrNoResults is returned when an export is requested before any
	// query has produced results.
	ErrNoResults = errors.New("no results to export")
)

// GenerationFailureText is appended as a system message when the
// translator fails; the conversation stays usable.
const GenerationFailureText = "Sorry, I couldn't generate a query for that request. Please try rephrasing it."

// Notifier receives user-facing success/error notices.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Runner executes query text against a database family.
type Runner func(queryText string, databaseType query.DatabaseType) (query.Result, error)

// Executor coordinates the generate/execute/export flow.
type Executor struct {
	sessions   *session.Manager
	translator translate.Translator
	run        Runner
	notifier   Notifier
	now        func() time.Time

	// Simulated latency. The delay always elapses once scheduled;
	// abandoning the request does not cancel it.
	generationDelay time.Duration
	executionDelay  time.Duration
	sleep           func(time.Duration)

	mu          sync.Mutex
	activeQuery string
	results     *query.Result
	loading     bool
	generating  bool
}

// ExecOption customizes an Executor.
type ExecOption func(*Executor)

// WithNotifier attaches a user-notification sink.
func WithNotifier(n Notifier) ExecOption {
	return func(e *Executor) { e.notifier = n }
}

// WithDelays sets the simulated generation and execution latency.
func WithDelays(generation, execution time.Duration) ExecOption {
	return func(e *Executor) {
		e.generationDelay = generation
		e.executionDelay = execution
	}
}

// WithSleeper injects the delay function, letting tests run without
// real waiting.
func WithSleeper(sleep func(time.Duration)) ExecOption {
	return func(e *Executor) { e.sleep = sleep }
}

// WithClock injects a deterministic time source for tests.
func WithClock(now func() time.Time) ExecOption {
	return func(e *Executor) { e.now = now }
}

// WithRunner replaces the mock execution function.
func WithRunner(run Runner) ExecOption {
	return func(e *Executor) { e.run = run }
}

// NewExecutor wires the controller to a session manager and translator.
func NewExecutor(sessions *session.Manager, translator translate.Translator, opts ...ExecOption) *Executor {
	e := &Executor{
		sessions:   sessions,
		translator: translator,
		run: func(queryText string, databaseType query.DatabaseType) (query.Result, error) {
			return mockdb.Execute(queryText, databaseType), nil
		},
		now:             time.Now,
		generationDelay: time.Second,
		executionDelay:  time.Second,
		sleep:           time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate appends the user's message, waits out the simulated latency,
// translates the request and appends the system reply carrying the
// generated query. A translator failure becomes an inline system
// message, not an error.
func (e *Executor) Generate(ctx context.Context, text string) (query.Message, error) {
	if strings.TrimSpace(text) == "" {
		e.notifyError("Please enter a message")
		return query.Message{}, ErrEmptyInput
	}

	sent := e.now()
	userMessage := query.Message{
		ID:        strconv.FormatInt(sent.UnixNano(), 10),
		Text:      text,
		Sender:    query.SenderUser,
		Timestamp: sent,
	}

	// The user message lands before the delay starts; replies append in
	// the order their delays complete.
	e.sessions.UpdateMessages(append(e.sessions.Messages(), userMessage))

	e.setGenerating(true)
	e.sleep(e.generationDelay)
	e.setGenerating(false)

	databaseType := e.sessions.DatabaseType()
	queryText, err := e.translator.Translate(ctx, text, databaseType)

	replied := e.now()
	reply := query.Message{
		ID:        strconv.FormatInt(replied.UnixNano()+1, 10),
		Sender:    query.SenderSystem,
		Timestamp: replied,
	}
	if err != nil {
		log.Printf("[query] translation failed: %v", err)
		reply.Text = GenerationFailureText
	} else {
		reply.Text = "Here's the generated query for your request:"
		reply.Query = queryText
	}

	// Re-read: other replies may have landed while we waited.
	e.sessions.UpdateMessages(append(e.sessions.Messages(), reply))
	return reply, nil
}

// Execute records the active query, runs it after the simulated latency
// and marks every message carrying the same query text as executed.
// Matching is by exact query-text equality, not message id: duplicate
// generated queries are all marked by one execution.
func (e *Executor) Execute(_ context.Context, queryText string) (*query.Result, error) {
	if strings.TrimSpace(queryText) == "" {
		e.notifyError("No query to execute")
		return nil, ErrNoQuery
	}

	e.mu.Lock()
	e.activeQuery = queryText
	e.loading = true
	e.mu.Unlock()

	e.sleep(e.executionDelay)

	databaseType := e.sessions.DatabaseType()
	result, err := e.run(queryText, databaseType)

	e.mu.Lock()
	e.loading = false
	if err == nil {
		e.results = &result
	}
	e.mu.Unlock()

	if err != nil {
		log.Printf("[query] execution failed: %v", err)
		failed := e.now()
		e.sessions.UpdateMessages(append(e.sessions.Messages(), query.Message{
			ID:        strconv.FormatInt(failed.UnixNano(), 10),
			Text:      "Query execution failed: " + err.Error(),
			Sender:    query.SenderSystem,
			Timestamp: failed,
		}))
		e.notifyError("Query execution failed")
		return nil, err
	}

	messages := e.sessions.Messages()
	for i := range messages {
		if messages[i].Query == queryText {
			messages[i].IsExecuted = true
		}
	}
	e.sessions.UpdateMessages(messages)

	e.notifySuccess("Query executed successfully")
	return &result, nil
}

// ActiveQuery returns the most recently submitted query text.
func (e *Executor) ActiveQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeQuery
}

// Results returns the transient results of the last execution, or nil.
func (e *Executor) Results() *query.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// IsLoading reports whether an execution is in flight.
func (e *Executor) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// IsGenerating reports whether a generation is in flight.
func (e *Executor) IsGenerating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generating
}

func (e *Executor) setGenerating(v bool) {
	e.mu.Lock()
	e.generating = v
	e.mu.Unlock()
}

func (e *Executor) notifySuccess(message string) {
	if e.notifier != nil {
		e.notifier.Success(message)
	}
}

func (e *Executor) notifyError(message string) {
	if e.notifier != nil {
		e.notifier.Error(message)
	}
}
