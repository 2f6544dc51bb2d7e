// internal/database/models.go
package database

// Conversation is one persisted chat session with the model.
type Conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Model     string `json:"model"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Turn is one persisted conversation entry. Role is "user" or
// "assistant". For assistant turns Content holds the operation batch
// serialized as JSON and Summary holds the rendered display text.
type Turn struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id"`
	Seq            int    `json:"seq"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Summary        string `json:"summary,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// Setting stores one application setting.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
