package session

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/querypilot/backend/internal/model/query"
)

// rawSession tolerates legacy or hand-edited blobs: messages is decoded
// separately so a wrong-shaped field degrades to an empty list instead
// of failing the whole record.
type rawSession struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Messages     json.RawMessage `json:"messages"`
	DatabaseType string          `json:"databaseType"`
	DateCreated  time.Time       `json:"dateCreated"`
	LastUpdated  *time.Time      `json:"lastUpdated"`
}

func decodeSession(data []byte) (query.Session, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return query.Session{}, fmt.Errorf("decode session: %w", err)
	}

	session := query.Session{
		ID:          raw.ID,
		Name:        raw.Name,
		Messages:    decodeMessages(raw.Messages),
		DateCreated: raw.DateCreated,
		LastUpdated: raw.LastUpdated,
	}

	session.DatabaseType = query.DatabaseType(raw.DatabaseType)
	if !session.DatabaseType.Valid() {
		session.DatabaseType = query.DatabaseSQL
	}
	return session, nil
}

func decodeSessions(data []byte) ([]query.Session, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode session list: %w", err)
	}

	sessions := make([]query.Session, 0, len(entries))
	for i, entry := range entries {
		session, err := decodeSession(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// decodeMessages substitutes an empty list when the field is absent or
// not a JSON array.
func decodeMessages(raw json.RawMessage) []query.Message {
	if len(raw) == 0 {
		return []query.Message{}
	}

	var messages []query.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		log.Printf("[session] messages field is not a list, substituting empty list: %v", err)
		return []query.Message{}
	}
	if messages == nil {
		return []query.Message{}
	}
	return messages
}
