// internal/session/manager.go
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"webweave/internal/database"
	"webweave/internal/gemini"
)

// Manager owns the active conversation: the ordered user/assistant turns
// that are displayed in the chat pane and forwarded to the model on every
// request. Turns are persisted as they are appended so a restart resumes
// where the operator left off.
type Manager struct {
	db *database.Database

	mu           sync.Mutex
	conversation *database.Conversation
	turns        []*database.Turn
}

// NewManager creates a Manager backed by the given database.
func NewManager(db *database.Database) *Manager {
	return &Manager{db: db}
}

// Resume loads the most recently updated conversation, or starts a new
// one when none exists.
func (m *Manager) Resume(model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversations, err := m.db.ListConversations()
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(conversations) == 0 {
		return m.startLocked(model)
	}

	m.conversation = conversations[0]
	turns, err := m.db.ListTurns(m.conversation.ID)
	if err != nil {
		return fmt.Errorf("load turns: %w", err)
	}
	m.turns = turns
	return nil
}

// Reset abandons the current conversation and starts a fresh one.
func (m *Manager) Reset(model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(model)
}

func (m *Manager) startLocked(model string) error {
	conversation := &database.Conversation{
		ID:    uuid.New().String(),
		Title: "New session",
		Model: model,
	}
	if err := m.db.CreateConversation(conversation); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	m.conversation = conversation
	m.turns = nil
	return nil
}

// ConversationID returns the active conversation's id.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conversation == nil {
		return ""
	}
	return m.conversation.ID
}

// AppendUser records one user prompt.
func (m *Manager) AppendUser(content string) (*database.Turn, error) {
	return m.append("user", content, "")
}

// AppendAssistant records one assistant reply: the operation batch as
// JSON plus its rendered display summary.
func (m *Manager) AppendAssistant(batchJSON, summary string) (*database.Turn, error) {
	return m.append("assistant", batchJSON, summary)
}

func (m *Manager) append(role, content, summary string) (*database.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conversation == nil {
		return nil, fmt.Errorf("no active conversation")
	}

	turn := &database.Turn{
		ConversationID: m.conversation.ID,
		Seq:            len(m.turns),
		Role:           role,
		Content:        content,
		Summary:        summary,
	}
	if err := m.db.AppendTurn(turn); err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}
	m.turns = append(m.turns, turn)

	// First user prompt names the conversation.
	if role == "user" && len(m.turns) == 1 {
		m.conversation.Title = truncateTitle(content)
		if err := m.db.UpdateConversationTitle(m.conversation.ID, m.conversation.Title); err != nil {
			return nil, fmt.Errorf("update title: %w", err)
		}
	}
	return turn, nil
}

// Turns returns a copy of the recorded turns in order.
func (m *Manager) Turns() []*database.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*database.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// History converts the recorded turns into the form forwarded to the
// model. Assistant turns already hold their batch JSON as content.
func (m *Manager) History() []gemini.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]gemini.Turn, len(m.turns))
	for i, turn := range m.turns {
		history[i] = gemini.Turn{Role: turn.Role, Content: turn.Content}
	}
	return history
}

func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) > 60 {
		return string(runes[:60]) + "..."
	}
	return text
}
