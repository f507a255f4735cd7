package mockdb

import (
	"testing"

	"github.com/querypilot/backend/internal/model/query"
)

func TestFindEngine(t *testing.T) {
	engine, ok := FindEngine("mongodb")
	if !ok {
		t.Fatal("expected to find mongodb")
	}
	if engine.Type != query.DatabaseNoSQL {
		t.Fatalf("mongodb type = %q, want nosql", engine.Type)
	}

	if _, ok := FindEngine("oracle"); ok {
		t.Fatal("unexpected engine oracle")
	}
}

func TestEnginesCoverBothFamilies(t *testing.T) {
	var sql, nosql int
	for _, e := range Engines() {
		switch e.Type {
		case query.DatabaseSQL:
			sql++
		case query.DatabaseNoSQL:
			nosql++
		default:
			t.Fatalf("engine %s has invalid type %q", e.ID, e.Type)
		}
	}
	if sql != 4 || nosql != 4 {
		t.Fatalf("got %d sql and %d nosql engines, want 4 and 4", sql, nosql)
	}
}

func TestExecuteSQLUsers(t *testing.T) {
	result := Execute("SELECT * FROM users;", query.DatabaseSQL)

	if result.Kind != query.ResultSQL {
		t.Fatalf("kind = %q, want sql", result.Kind)
	}
	if result.Table == nil {
		t.Fatal("expected tabular result")
	}
	want := []string{"id", "name", "email", "created_at"}
	if len(result.Table.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", result.Table.Columns, want)
	}
	for i, col := range want {
		if result.Table.Columns[i] != col {
			t.Fatalf("columns = %v, want %v", result.Table.Columns, want)
		}
	}
	if len(result.Table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(result.Table.Rows))
	}
	if result.Table.Rows[0]["name"] != "John Doe" {
		t.Fatalf("first row name = %v", result.Table.Rows[0]["name"])
	}
}

func TestExecuteSQLFallbackRow(t *testing.T) {
	result := Execute("DROP TABLE nothing;", query.DatabaseSQL)

	if len(result.Table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Table.Rows))
	}
	if result.Table.Rows[0]["result"] != "Query executed successfully" {
		t.Fatalf("fallback row = %v", result.Table.Rows[0])
	}
}

func TestExecuteNoSQLOrders(t *testing.T) {
	result := Execute("db.orders.find({})", query.DatabaseNoSQL)

	if result.Kind != query.ResultNoSQL {
		t.Fatalf("kind = %q, want nosql", result.Kind)
	}
	if len(result.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(result.Documents))
	}
	if _, ok := result.Documents[0]["items"]; !ok {
		t.Fatal("expected embedded items in order document")
	}
}
