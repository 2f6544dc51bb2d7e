// internal/database/db.go
package database

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Database wraps the SQLite database connection
type Database struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// init creates the database schema
func (d *Database) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		model TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		summary TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, seq);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// CreateConversation inserts a new conversation row
func (d *Database) CreateConversation(c *Conversation) error {
	now := time.Now().Unix()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	if c.UpdatedAt == 0 {
		c.UpdatedAt = now
	}

	_, err := d.db.Exec(`
		INSERT INTO conversations (id, title, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Model, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetConversation retrieves a conversation by ID
func (d *Database) GetConversation(id string) (*Conversation, error) {
	row := d.db.QueryRow(`
		SELECT id, title, model, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	var c Conversation
	if err := row.Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns all conversations, most recently updated first
func (d *Database) ListConversations() ([]*Conversation, error) {
	rows, err := d.db.Query(`
		SELECT id, title, model, created_at, updated_at
		FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

// DeleteConversation removes a conversation and its turns
func (d *Database) DeleteConversation(id string) error {
	if _, err := d.db.Exec(`DELETE FROM turns WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	_, err := d.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	return err
}

// UpdateConversationTitle renames a conversation
func (d *Database) UpdateConversationTitle(id, title string) error {
	_, err := d.db.Exec(`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().Unix(), id)
	return err
}

// AppendTurn inserts a turn and bumps the conversation's updated_at
func (d *Database) AppendTurn(t *Turn) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}

	result, err := d.db.Exec(`
		INSERT INTO turns (conversation_id, seq, role, content, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ConversationID, t.Seq, t.Role, t.Content, t.Summary, t.CreatedAt)
	if err != nil {
		return err
	}
	if id, err := result.LastInsertId(); err == nil {
		t.ID = id
	}

	_, err = d.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().Unix(), t.ConversationID)
	return err
}

// ListTurns returns a conversation's turns in order
func (d *Database) ListTurns(conversationID string) ([]*Turn, error) {
	rows, err := d.db.Query(`
		SELECT id, conversation_id, seq, role, content, summary, created_at
		FROM turns WHERE conversation_id = ? ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		var t Turn
		var summary sql.NullString
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Seq, &t.Role, &t.Content, &summary, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Summary = summary.String
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}

// DeleteTurns removes all turns for a conversation
func (d *Database) DeleteTurns(conversationID string) error {
	_, err := d.db.Exec(`DELETE FROM turns WHERE conversation_id = ?`, conversationID)
	return err
}

// SaveSetting saves or updates a setting
func (d *Database) SaveSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value)
	return err
}

// GetSetting retrieves a setting value, or "" when unset
func (d *Database) GetSetting(key string) (string, error) {
	row := d.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}
