// Package translate maps natural-language requests to query text. The
// rule tables are deliberately simple string matching; swapping in a
// real model only requires another Translator implementation.
package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/querypilot/backend/internal/model/query"
)

// Translator turns a natural-language request into query text for the
// given database family.
type Translator interface {
	Translate(ctx context.Context, text string, databaseType query.DatabaseType) (string, error)
}

// RuleTranslator is the deterministic, dependency-free implementation.
type RuleTranslator struct{}

// NewRuleTranslator returns the canonical rule-based translator.
func NewRuleTranslator() *RuleTranslator {
	return &RuleTranslator{}
}

var (
	emailPattern    = regexp.MustCompile(`(?i)email is (.+?)($|\s+and|\s+where|\s+with)`)
	categoryPattern = regexp.MustCompile(`(?i)category is (.+?)($|\s+and|\s+where|\s+with)`)
)

// Translate dispatches on the database family.
func (t *RuleTranslator) Translate(_ context.Context, text string, databaseType query.DatabaseType) (string, error) {
	if databaseType == query.DatabaseNoSQL {
		return translateToNoSQL(text), nil
	}
	return translateToSQL(text), nil
}

func translateToSQL(text string) string {
	nl := strings.ToLower(text)

	switch {
	case strings.Contains(nl, "show all users") || strings.Contains(nl, "list all users"):
		return "SELECT * FROM users;"
	case strings.Contains(nl, "find user") && strings.Contains(nl, "email"):
		email := extract(emailPattern, nl, "example@email.com")
		return fmt.Sprintf("SELECT * FROM users WHERE email = '%s';", email)
	case strings.Contains(nl, "count") && strings.Contains(nl, "products"):
		if strings.Contains(nl, "category") {
			category := extract(categoryPattern, nl, "Electronics")
			return fmt.Sprintf("SELECT COUNT(*) FROM products WHERE category = '%s';", category)
		}
		return "SELECT COUNT(*) FROM products;"
	case strings.Contains(nl, "sum") && strings.Contains(nl, "orders"):
		return "SELECT SUM(total) FROM orders;"
	case strings.Contains(nl, "average") && strings.Contains(nl, "price"):
		return "SELECT AVG(price) FROM products;"
	case strings.Contains(nl, "join") || (strings.Contains(nl, "users") && strings.Contains(nl, "orders")):
		return "SELECT users.name, orders.total, orders.status \nFROM users \nJOIN orders ON users.id = orders.user_id;"
	}

	return fmt.Sprintf("-- Translated query from: %q\nSELECT * FROM table_name WHERE condition;", text)
}

func translateToNoSQL(text string) string {
	nl := strings.ToLower(text)

	switch {
	case strings.Contains(nl, "show all users") || strings.Contains(nl, "list all users"):
		return "db.users.find({})"
	case strings.Contains(nl, "find user") && strings.Contains(nl, "email"):
		email := extract(emailPattern, nl, "example@email.com")
		return fmt.Sprintf(`db.users.find({ email: "%s" })`, email)
	case strings.Contains(nl, "count") && strings.Contains(nl, "products"):
		if strings.Contains(nl, "category") {
			category := extract(categoryPattern, nl, "Electronics")
			return fmt.Sprintf(`db.products.countDocuments({ category: "%s" })`, category)
		}
		return "db.products.countDocuments({})"
	case strings.Contains(nl, "sum") && strings.Contains(nl, "orders"):
		return "db.orders.aggregate([\n  { $group: { _id: null, total: { $sum: \"$total\" } } }\n])"
	case strings.Contains(nl, "average") && strings.Contains(nl, "price"):
		return "db.products.aggregate([\n  { $group: { _id: null, avgPrice: { $avg: \"$price\" } } }\n])"
	case strings.Contains(nl, "join") || (strings.Contains(nl, "users") && strings.Contains(nl, "orders")):
		return `db.orders.aggregate([
  { $lookup: {
      from: "users",
      localField: "userId",
      foreignField: "_id",
      as: "user"
  }},
  { $unwind: "$user" },
  { $project: { "user.name": 1, total: 1, status: 1 } }
])`
	}

	return fmt.Sprintf("// Translated query from: %q\ndb.collection.find({ key: \"value\" })", text)
}

func extract(pattern *regexp.Regexp, text, fallback string) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return fallback
	}
	return strings.Trim(strings.TrimSpace(match[1]), `'"`)
}
