// Package session owns conversation state: the live message list, the
// current session record and the session history, kept mutually
// consistent and written through the store adapter.
package session

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/querypilot/backend/internal/model/query"
	"github.com/querypilot/backend/internal/store"
)

// Persisted keys. Nothing outside this package may write them.
const (
	historyKey = "query-sessions"
	currentKey = "current-session"
)

// WelcomeText seeds every fresh session's opening system message.
const WelcomeText = "Hello! I can help you generate queries. What would you like to know?"

// Notifier receives user-facing success/error notices. Implementations
// must not block.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// State is a read-only snapshot of the manager.
type State struct {
	Messages     []query.Message    `json:"messages"`
	DatabaseType query.DatabaseType `json:"databaseType"`
	Current      query.Session      `json:"currentSession"`
	History      []query.Session    `json:"history"`
}

// Manager is the single writer of session state. All message mutations
// flow through UpdateMessages so the current session, its history entry
// and the live message list can never diverge.
type Manager struct {
	mu       sync.RWMutex
	store    store.Store
	notifier Notifier
	now      func() time.Time

	messages     []query.Message
	databaseType query.DatabaseType
	current      query.Session
	history      []query.Session
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock injects a deterministic time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithNotifier attaches a user-notification sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// NewManager returns a manager seeded with a default session. Call
// Initialize to reconcile against persisted state.
func NewManager(st store.Store, opts ...Option) *Manager {
	m := &Manager{store: st, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	seeded := m.seedSession("1", "New Session")
	m.current = seeded
	m.messages = append([]query.Message(nil), seeded.Messages...)
	m.databaseType = seeded.DatabaseType
	return m
}

// Initialize loads persisted history and the current-session pointer.
// Malformed blobs are logged, cleared from the store and treated as
// absent; the call itself never fails.
func (m *Manager) Initialize() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, found, err := m.store.Get(historyKey); err != nil {
		log.Printf("[session] read %s: %v", historyKey, err)
	} else if found {
		history, err := decodeSessions([]byte(raw))
		if err != nil {
			log.Printf("[session] discarding malformed %s: %v", historyKey, err)
			m.clearKey(historyKey)
		} else {
			m.history = history
		}
	}

	adopted := false
	if raw, found, err := m.store.Get(currentKey); err != nil {
		log.Printf("[session] read %s: %v", currentKey, err)
	} else if found {
		current, err := decodeSession([]byte(raw))
		if err != nil {
			log.Printf("[session] discarding malformed %s: %v", currentKey, err)
			m.clearKey(currentKey)
		} else {
			m.adoptLocked(current)
			adopted = true
		}
	}

	// No current pointer: fall back to the most recently appended
	// history entry. Appended order wins, not last-used order.
	if !adopted && len(m.history) > 0 {
		m.adoptLocked(m.history[len(m.history)-1].Clone())
	}

	return m.snapshotLocked()
}

// ChangeDatabaseType switches the active query family and keeps the
// current session and its history entry in step.
func (m *Manager) ChangeDatabaseType(databaseType query.DatabaseType) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.databaseType = databaseType
	m.current.DatabaseType = databaseType
	m.upsertHistoryLocked()
	m.persistCurrentLocked()
	m.persistHistoryLocked()
	return m.snapshotLocked()
}

// UpdateMessages is the single choke point for message mutations. A nil
// slice is the wire-level "not an array" case and is replaced with an
// empty one.
func (m *Manager) UpdateMessages(messages []query.Message) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if messages == nil {
		log.Printf("[session] UpdateMessages called with non-list input, substituting empty list")
		messages = []query.Message{}
	}

	m.messages = append([]query.Message(nil), messages...)
	m.current.Messages = append([]query.Message(nil), messages...)
	updated := m.now()
	m.current.LastUpdated = &updated

	m.persistCurrentLocked()
	m.upsertHistoryLocked()
	m.persistHistoryLocked()
	return m.snapshotLocked()
}

// CreateNewSession starts a fresh session, makes it current and appends
// it to the history.
func (m *Manager) CreateNewSession() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := m.now()
	session := m.seedSession(m.newIDLocked(), "Session "+created.Format("Jan 2, 2006 15:04"))

	m.current = session
	m.messages = append([]query.Message(nil), session.Messages...)
	m.databaseType = session.DatabaseType
	m.history = append(m.history, session.Clone())

	m.persistCurrentLocked()
	m.persistHistoryLocked()
	m.notifySuccess("New session created")
	return m.snapshotLocked()
}

// LoadSession replaces the current session with the history entry whose
// id matches. An unknown id is a safe no-op. Only the current pointer
// is persisted; the history is untouched by a load.
func (m *Manager) LoadSession(id string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, session := range m.history {
		if session.ID == id {
			m.adoptLocked(session.Clone())
			m.persistCurrentLocked()
			return m.snapshotLocked(), true
		}
	}

	log.Printf("[session] LoadSession: id %q not in history, ignoring", id)
	return m.snapshotLocked(), false
}

// Snapshot returns the current state without mutating anything.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Messages returns a copy of the live message list.
func (m *Manager) Messages() []query.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]query.Message(nil), m.messages...)
}

// DatabaseType returns the active query family.
func (m *Manager) DatabaseType() query.DatabaseType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.databaseType
}

func (m *Manager) adoptLocked(session query.Session) {
	if session.Messages == nil {
		session.Messages = []query.Message{}
	}
	if !session.DatabaseType.Valid() {
		session.DatabaseType = query.DatabaseSQL
	}
	m.current = session
	m.messages = append([]query.Message(nil), session.Messages...)
	m.databaseType = session.DatabaseType
}

func (m *Manager) seedSession(id, name string) query.Session {
	created := m.now()
	return query.Session{
		ID:   id,
		Name: name,
		Messages: []query.Message{{
			ID:        "1",
			Text:      WelcomeText,
			Sender:    query.SenderSystem,
			Timestamp: created,
		}},
		DatabaseType: query.DatabaseSQL,
		DateCreated:  created,
	}
}

// newIDLocked derives a session id from the clock, disambiguating with
// a counter suffix if the history already holds it (fixed test clocks
// would otherwise collide).
func (m *Manager) newIDLocked() string {
	base := strconv.FormatInt(m.now().UnixNano(), 10)
	id := base
	for n := 1; m.idTakenLocked(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func (m *Manager) idTakenLocked(id string) bool {
	if m.current.ID == id {
		return true
	}
	for _, session := range m.history {
		if session.ID == id {
			return true
		}
	}
	return false
}

// upsertHistoryLocked replaces the history entry matching the current
// session's id, appending when absent. Never duplicates.
func (m *Manager) upsertHistoryLocked() {
	for i, session := range m.history {
		if session.ID == m.current.ID {
			m.history[i] = m.current.Clone()
			return
		}
	}
	m.history = append(m.history, m.current.Clone())
}

// persistCurrentLocked writes the current pointer. A failed write is
// logged only; in-memory state stays authoritative.
func (m *Manager) persistCurrentLocked() {
	data, err := json.Marshal(m.current)
	if err != nil {
		log.Printf("[session] encode current session: %v", err)
		return
	}
	if err := m.store.Set(currentKey, string(data)); err != nil {
		log.Printf("[session] persist %s: %v", currentKey, err)
	}
}

func (m *Manager) persistHistoryLocked() {
	data, err := json.Marshal(m.history)
	if err != nil {
		log.Printf("[session] encode history: %v", err)
		return
	}
	if err := m.store.Set(historyKey, string(data)); err != nil {
		log.Printf("[session] persist %s: %v", historyKey, err)
	}
}

func (m *Manager) clearKey(key string) {
	if err := m.store.Delete(key); err != nil {
		log.Printf("[session] clear %s: %v", key, err)
	}
}

func (m *Manager) snapshotLocked() State {
	history := make([]query.Session, len(m.history))
	for i, session := range m.history {
		history[i] = session.Clone()
	}
	return State{
		Messages:     append([]query.Message(nil), m.messages...),
		DatabaseType: m.databaseType,
		Current:      m.current.Clone(),
		History:      history,
	}
}

func (m *Manager) notifySuccess(message string) {
	if m.notifier != nil {
		m.notifier.Success(message)
	}
}
