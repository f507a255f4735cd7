package query

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Message is a single conversation turn. Once appended it is immutable
// except for IsExecuted, which flips to true when its query has run.
type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Sender     Sender    `json:"sender"`
	Timestamp  time.Time `json:"timestamp"`
	Query      string    `json:"query,omitempty"`
	IsExecuted bool      `json:"isExecuted,omitempty"`
}
