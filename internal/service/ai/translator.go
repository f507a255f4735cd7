// Package ai provides the LLM-backed translator, used instead of the
// rule tables when Ark credentials are configured.
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/querypilot/backend/internal/config"
	"github.com/querypilot/backend/internal/mockdb"
	"github.com/querypilot/backend/internal/model/query"
)

const systemPrompt = `You translate natural-language requests into database queries.
Database family: {family}.
Schema:
{schema}
Reply with the query text only, no explanation and no code fences.`

// Translator maps natural language to query text via an eino chain.
type Translator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewTranslator compiles the translation chain over the configured
// chat model.
func NewTranslator(ctx context.Context, cfg config.AIConfig) (*Translator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{request}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile translation chain: %w", err)
	}

	return &Translator{chain: runnable}, nil
}

// Translate invokes the chain and returns the generated query text.
func (t *Translator) Translate(ctx context.Context, text string, databaseType query.DatabaseType) (string, error) {
	response, err := t.chain.Invoke(ctx, map[string]any{
		"family":  string(databaseType),
		"schema":  schemaDescription(databaseType),
		"request": text,
	})
	if err != nil {
		return "", fmt.Errorf("run translation chain: %w", err)
	}

	queryText := stripFences(response.Content)
	log.Printf("[ai] translated request, family=%s, length=%d", databaseType, len(queryText))
	return queryText, nil
}

func schemaDescription(databaseType query.DatabaseType) string {
	var b strings.Builder
	if databaseType == query.DatabaseNoSQL {
		for _, c := range mockdb.NoSQLSchema() {
			fmt.Fprintf(&b, "- collection %s: %s\n", c.Name, strings.Join(c.Fields, ", "))
		}
		return b.String()
	}
	for _, t := range mockdb.SQLSchema() {
		fmt.Fprintf(&b, "- table %s: %s\n", t.Name, strings.Join(t.Columns, ", "))
	}
	return b.String()
}

// stripFences removes markdown code fences models tend to add despite
// instructions.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
