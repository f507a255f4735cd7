package query

import "time"

// DatabaseType selects the query family a session targets.
type DatabaseType string

const (
	DatabaseSQL   DatabaseType = "sql"
	DatabaseNoSQL DatabaseType = "nosql"
)

// Valid reports whether t is one of the known database families.
func (t DatabaseType) Valid() bool {
	return t == DatabaseSQL || t == DatabaseNoSQL
}

// Session is a named conversation plus its database-type setting.
type Session struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Messages     []Message    `json:"messages"`
	DatabaseType DatabaseType `json:"databaseType"`
	DateCreated  time.Time    `json:"dateCreated"`
	LastUpdated  *time.Time   `json:"lastUpdated,omitempty"`
}

// Clone returns a deep copy so callers can hand sessions out without
// sharing the message slice.
func (s Session) Clone() Session {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return out
}
