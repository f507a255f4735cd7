package translate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/querypilot/backend/internal/model/query"
	"github.com/querypilot/backend/internal/service/translate"
)

func TestTranslateSQL(t *testing.T) {
	tr := translate.NewRuleTranslator()
	ctx := context.Background()

	cases := []struct {
		text string
		want string
	}{
		{"Show all users", "SELECT * FROM users;"},
		{"list all users in the system", "SELECT * FROM users;"},
		{"count products", "SELECT COUNT(*) FROM products;"},
		{"sum of all orders", "SELECT SUM(total) FROM orders;"},
		{"average price of items", "SELECT AVG(price) FROM products;"},
	}

	for _, tc := range cases {
		got, err := tr.Translate(ctx, tc.text, query.DatabaseSQL)
		if err != nil {
			t.Fatalf("Translate(%q) err: %v", tc.text, err)
		}
		if got != tc.want {
			t.Fatalf("Translate(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestTranslateSQLExtractsEmail(t *testing.T) {
	tr := translate.NewRuleTranslator()

	got, err := tr.Translate(context.Background(), "find user whose email is jane@example.com", query.DatabaseSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	want := "SELECT * FROM users WHERE email = 'jane@example.com';"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTranslateSQLExtractsCategory(t *testing.T) {
	tr := translate.NewRuleTranslator()

	got, err := tr.Translate(context.Background(), "count products where category is Kitchen", query.DatabaseSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	want := "SELECT COUNT(*) FROM products WHERE category = 'kitchen';"
	if !strings.EqualFold(got, want) {
		t.Fatalf("got %q, want %q (case-insensitive)", got, want)
	}
}

func TestTranslateSQLFallback(t *testing.T) {
	tr := translate.NewRuleTranslator()

	got, err := tr.Translate(context.Background(), "do something mysterious", query.DatabaseSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if !strings.HasPrefix(got, "-- Translated query from:") {
		t.Fatalf("expected fallback comment, got %q", got)
	}
}

func TestTranslateNoSQL(t *testing.T) {
	tr := translate.NewRuleTranslator()
	ctx := context.Background()

	got, err := tr.Translate(ctx, "show all users", query.DatabaseNoSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if got != "db.users.find({})" {
		t.Fatalf("got %q", got)
	}

	got, err = tr.Translate(ctx, "sum the orders", query.DatabaseNoSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if !strings.Contains(got, "$sum") {
		t.Fatalf("expected aggregation pipeline, got %q", got)
	}
}

func TestTranslateNoSQLJoinUsesLookup(t *testing.T) {
	tr := translate.NewRuleTranslator()

	got, err := tr.Translate(context.Background(), "join users and orders", query.DatabaseNoSQL)
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if !strings.Contains(got, "$lookup") {
		t.Fatalf("expected $lookup stage, got %q", got)
	}
}
