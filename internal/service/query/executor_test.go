package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/backend/internal/model/query"
	"github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/internal/service/translate"
	"github.com/querypilot/backend/internal/store"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *recordingNotifier) Error(message string)   { n.errors = append(n.errors, message) }

func newTestExecutor(t *testing.T) (*Executor, *session.Manager, *recordingNotifier) {
	t.Helper()
	sessions := session.NewManager(store.NewMemoryStore())
	sessions.Initialize()

	notifier := &recordingNotifier{}
	executor := NewExecutor(sessions, translate.NewRuleTranslator(),
		WithNotifier(notifier),
		WithDelays(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	return executor, sessions, notifier
}

func TestGenerateAppendsUserAndSystemMessages(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)

	reply, err := executor.Generate(context.Background(), "Show all users")
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM users;", reply.Query)
	assert.Equal(t, query.SenderSystem, reply.Sender)

	messages := sessions.Messages()
	require.Len(t, messages, 3) // welcome + user + reply
	assert.Equal(t, query.SenderUser, messages[1].Sender)
	assert.Equal(t, "Show all users", messages[1].Text)
	assert.Equal(t, reply.ID, messages[2].ID)
	assert.NotEqual(t, messages[1].ID, messages[2].ID)
}

func TestGenerateEmptyInput(t *testing.T) {
	executor, sessions, notifier := newTestExecutor(t)

	_, err := executor.Generate(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, sessions.Messages(), 1)
	assert.NotEmpty(t, notifier.errors)
}

type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string, query.DatabaseType) (string, error) {
	return "", errors.New("model unavailable")
}

func TestGenerateTranslatorFailureBecomesChatMessage(t *testing.T) {
	sessions := session.NewManager(store.NewMemoryStore())
	sessions.Initialize()
	executor := NewExecutor(sessions, failingTranslator{},
		WithDelays(0, 0), WithSleeper(func(time.Duration) {}))

	reply, err := executor.Generate(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, GenerationFailureText, reply.Text)
	assert.Empty(t, reply.Query)

	messages := sessions.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, GenerationFailureText, messages[2].Text)
}

func TestExecuteMarksMatchingMessageExecuted(t *testing.T) {
	executor, sessions, notifier := newTestExecutor(t)

	reply, err := executor.Generate(context.Background(), "Show all users")
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), reply.Query)
	require.NoError(t, err)

	require.Equal(t, query.ResultSQL, result.Kind)
	assert.Equal(t, []string{"id", "name", "email", "created_at"}, result.Table.Columns)
	assert.Len(t, result.Table.Rows, 3)

	for _, msg := range sessions.Messages() {
		if msg.Query == reply.Query {
			assert.True(t, msg.IsExecuted)
		}
	}

	// The executed flag survives in the current session too.
	state := sessions.Snapshot()
	assert.True(t, state.Current.Messages[len(state.Current.Messages)-1].IsExecuted)
	assert.Equal(t, reply.Query, executor.ActiveQuery())
	assert.False(t, executor.IsLoading())
	assert.Contains(t, notifier.successes, "Query executed successfully")
}

func TestExecuteMarksEveryMessageWithSameQueryText(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)

	first, err := executor.Generate(context.Background(), "show all users")
	require.NoError(t, err)
	second, err := executor.Generate(context.Background(), "list all users please")
	require.NoError(t, err)
	require.Equal(t, first.Query, second.Query)

	_, err = executor.Execute(context.Background(), first.Query)
	require.NoError(t, err)

	executed := 0
	for _, msg := range sessions.Messages() {
		if msg.IsExecuted {
			executed++
		}
	}
	// Matching is by query text, not message id: one run marks both.
	assert.Equal(t, 2, executed)
}

func TestExecuteEmptyQuery(t *testing.T) {
	executor, _, _ := newTestExecutor(t)

	_, err := executor.Execute(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoQuery)
}

func TestExecuteRunnerFailureAppendsSystemMessage(t *testing.T) {
	sessions := session.NewManager(store.NewMemoryStore())
	sessions.Initialize()
	executor := NewExecutor(sessions, translate.NewRuleTranslator(),
		WithDelays(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRunner(func(string, query.DatabaseType) (query.Result, error) {
			return query.Result{}, errors.New("engine down")
		}),
	)

	_, err := executor.Execute(context.Background(), "SELECT 1;")
	require.Error(t, err)

	messages := sessions.Messages()
	last := messages[len(messages)-1]
	assert.Equal(t, query.SenderSystem, last.Sender)
	assert.Contains(t, last.Text, "Query execution failed")
	assert.Nil(t, executor.Results())
	assert.False(t, executor.IsLoading())
}

func TestExecuteNoSQLReturnsDocuments(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)
	sessions.ChangeDatabaseType(query.DatabaseNoSQL)

	reply, err := executor.Generate(context.Background(), "show all users")
	require.NoError(t, err)
	assert.Equal(t, "db.users.find({})", reply.Query)

	result, err := executor.Execute(context.Background(), reply.Query)
	require.NoError(t, err)

	assert.Equal(t, query.ResultNoSQL, result.Kind)
	assert.Len(t, result.Documents, 3)
}

func TestGenerateCompletesAfterCallerGivesUp(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A scheduled generation always runs to completion; abandoning the
	// request must not panic or lose the reply.
	reply, err := executor.Generate(ctx, "Show all users")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users;", reply.Query)
	assert.Len(t, sessions.Messages(), 3)
}

func TestExportWithoutResults(t *testing.T) {
	executor, _, notifier := newTestExecutor(t)

	_, err := executor.Export("")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Contains(t, notifier.errors, "No results to export")
}

func TestExportCSV(t *testing.T) {
	executor, _, _ := newTestExecutor(t)
	_, err := executor.Execute(context.Background(), "SELECT * FROM users;")
	require.NoError(t, err)

	artifact, err := executor.Export("")
	require.NoError(t, err)

	assert.Equal(t, "sql_results.csv", artifact.Filename)
	assert.Equal(t, "text/csv", artifact.ContentType)

	lines := strings.Split(string(artifact.Data), "\n")
	require.Len(t, lines, 4) // header + 3 rows
	assert.Equal(t, "id,name,email,created_at", lines[0])
	assert.Contains(t, lines[1], `"John Doe"`)
}

func TestExportJSONForDocuments(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)
	sessions.ChangeDatabaseType(query.DatabaseNoSQL)

	_, err := executor.Execute(context.Background(), "db.users.find({})")
	require.NoError(t, err)

	artifact, err := executor.Export("")
	require.NoError(t, err)

	assert.Equal(t, "nosql_results.json", artifact.Filename)
	assert.Equal(t, "application/json", artifact.ContentType)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(artifact.Data, &docs))
	assert.Len(t, docs, 3)
}

func TestExportTable(t *testing.T) {
	executor, _, _ := newTestExecutor(t)
	_, err := executor.Execute(context.Background(), "SELECT * FROM users;")
	require.NoError(t, err)

	artifact, err := executor.Export("table")
	require.NoError(t, err)

	text := string(artifact.Data)
	assert.Contains(t, text, "John Doe")
	assert.Contains(t, text, "(3 rows)")
}

func TestExportCSVRequiresTabularResults(t *testing.T) {
	executor, sessions, _ := newTestExecutor(t)
	sessions.ChangeDatabaseType(query.DatabaseNoSQL)

	_, err := executor.Execute(context.Background(), "db.users.find({})")
	require.NoError(t, err)

	_, err = executor.Export("csv")
	assert.Error(t, err)
}
