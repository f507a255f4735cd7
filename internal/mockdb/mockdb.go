// Package mockdb supplies the demo engine catalog, example schemas and
// canned query results used when no real database is wired in.
package mockdb

import (
	"strings"

	"github.com/querypilot/backend/internal/model/query"
)

// Engine describes a selectable database engine.
type Engine struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        query.DatabaseType `json:"type"`
	Description string             `json:"description"`
	Popular     bool               `json:"popular,omitempty"`
}

// Engines lists the engines offered on the selection page.
func Engines() []Engine {
	return []Engine{
		{ID: "mysql", Name: "MySQL", Type: query.DatabaseSQL, Description: "Open-source relational database management system", Popular: true},
		{ID: "postgresql", Name: "PostgreSQL", Type: query.DatabaseSQL, Description: "Powerful, open source object-relational database system", Popular: true},
		{ID: "sqlite", Name: "SQLite", Type: query.DatabaseSQL, Description: "Lightweight, disk-based database that doesn't require a server"},
		{ID: "sqlserver", Name: "SQL Server", Type: query.DatabaseSQL, Description: "Microsoft's relational database management system"},
		{ID: "mongodb", Name: "MongoDB", Type: query.DatabaseNoSQL, Description: "Document-oriented NoSQL database", Popular: true},
		{ID: "couchdb", Name: "CouchDB", Type: query.DatabaseNoSQL, Description: "Document-oriented NoSQL database that uses JSON"},
		{ID: "dynamodb", Name: "DynamoDB", Type: query.DatabaseNoSQL, Description: "AWS's fully managed NoSQL database service"},
		{ID: "cassandra", Name: "Cassandra", Type: query.DatabaseNoSQL, Description: "Free and open-source, distributed, wide column store"},
	}
}

// FindEngine looks up an engine by identifier.
func FindEngine(id string) (Engine, bool) {
	for _, e := range Engines() {
		if e.ID == id {
			return e, true
		}
	}
	return Engine{}, false
}

// Table describes an example relational table.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Collection describes an example document collection.
type Collection struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// SQLSchema returns the example relational schema shown to users.
func SQLSchema() []Table {
	return []Table{
		{Name: "users", Columns: []string{"id", "name", "email", "created_at"}},
		{Name: "products", Columns: []string{"id", "name", "price", "category", "description"}},
		{Name: "orders", Columns: []string{"id", "user_id", "total", "status", "created_at"}},
		{Name: "order_items", Columns: []string{"id", "order_id", "product_id", "quantity", "price"}},
	}
}

// NoSQLSchema returns the example document schema shown to users.
func NoSQLSchema() []Collection {
	return []Collection{
		{Name: "users", Fields: []string{"_id", "name", "email", "createdAt"}},
		{Name: "products", Fields: []string{"_id", "name", "price", "category", "description"}},
		{Name: "orders", Fields: []string{"_id", "userId", "items", "total", "status", "createdAt"}},
	}
}

// Execute runs queryText against the canned data for the given family
// and returns the tagged result.
func Execute(queryText string, databaseType query.DatabaseType) query.Result {
	if databaseType == query.DatabaseNoSQL {
		return query.Result{Kind: query.ResultNoSQL, Documents: executeNoSQL(queryText)}
	}
	table := executeSQL(queryText)
	return query.Result{Kind: query.ResultSQL, Table: &table}
}

func executeSQL(queryText string) query.TabularResult {
	q := strings.ToLower(queryText)

	switch {
	case strings.Contains(q, "select") && strings.Contains(q, "from users"):
		return query.TabularResult{
			Columns: []string{"id", "name", "email", "created_at"},
			Rows: []map[string]any{
				{"id": 1, "name": "John Doe", "email": "john@example.com", "created_at": "2023-01-15"},
				{"id": 2, "name": "Jane Smith", "email": "jane@example.com", "created_at": "2023-02-20"},
				{"id": 3, "name": "Mike Johnson", "email": "mike@example.com", "created_at": "2023-03-10"},
			},
		}
	case strings.Contains(q, "select") && strings.Contains(q, "from products"):
		return query.TabularResult{
			Columns: []string{"id", "name", "price", "category"},
			Rows: []map[string]any{
				{"id": 1, "name": "Laptop", "price": 1299.99, "category": "Electronics"},
				{"id": 2, "name": "Headphones", "price": 199.99, "category": "Electronics"},
				{"id": 3, "name": "Coffee Maker", "price": 89.99, "category": "Kitchen"},
			},
		}
	case strings.Contains(q, "select") && strings.Contains(q, "from orders"):
		return query.TabularResult{
			Columns: []string{"id", "user_id", "total", "status"},
			Rows: []map[string]any{
				{"id": 1, "user_id": 1, "total": 1499.98, "status": "Completed"},
				{"id": 2, "user_id": 2, "total": 89.99, "status": "Processing"},
				{"id": 3, "user_id": 1, "total": 199.99, "status": "Shipped"},
			},
		}
	}

	return query.TabularResult{
		Columns: []string{"result"},
		Rows:    []map[string]any{{"result": "Query executed successfully"}},
	}
}

func executeNoSQL(queryText string) []query.Document {
	q := strings.ToLower(queryText)

	switch {
	case strings.Contains(q, "find") && strings.Contains(q, "users"):
		return []query.Document{
			{"_id": "a1b2c3", "name": "John Doe", "email": "john@example.com", "createdAt": "2023-01-15"},
			{"_id": "d4e5f6", "name": "Jane Smith", "email": "jane@example.com", "createdAt": "2023-02-20"},
			{"_id": "g7h8i9", "name": "Mike Johnson", "email": "mike@example.com", "createdAt": "2023-03-10"},
		}
	case strings.Contains(q, "find") && strings.Contains(q, "products"):
		return []query.Document{
			{"_id": "p1q2r3", "name": "Laptop", "price": 1299.99, "category": "Electronics"},
			{"_id": "s4t5u6", "name": "Headphones", "price": 199.99, "category": "Electronics"},
			{"_id": "v7w8x9", "name": "Coffee Maker", "price": 89.99, "category": "Kitchen"},
		}
	case strings.Contains(q, "find") && strings.Contains(q, "orders"):
		return []query.Document{
			{
				"_id":    "o1p2q3",
				"userId": "a1b2c3",
				"items": []map[string]any{
					{"productId": "p1q2r3", "quantity": 1, "price": 1299.99},
					{"productId": "s4t5u6", "quantity": 1, "price": 199.99},
				},
				"total":     1499.98,
				"status":    "Completed",
				"createdAt": "2023-04-12",
			},
			{
				"_id":    "r4s5t6",
				"userId": "d4e5f6",
				"items": []map[string]any{
					{"productId": "v7w8x9", "quantity": 1, "price": 89.99},
				},
				"total":     89.99,
				"status":    "Processing",
				"createdAt": "2023-05-05",
			},
		}
	}

	return []query.Document{{"result": "Query executed successfully"}}
}
