// internal/session/manager_test.go
package session

import (
	"path/filepath"
	"strings"
	"testing"

	"webweave/internal/database"
)

func openTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestManager_ResumeStartsFresh(t *testing.T) {
	db := openTestDB(t)
	manager := NewManager(db)

	if err := manager.Resume("gemini-test"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if manager.ConversationID() == "" {
		t.Error("expected a new conversation id")
	}
	if len(manager.Turns()) != 0 {
		t.Error("fresh conversation should have no turns")
	}
}

func TestManager_AppendAndHistory(t *testing.T) {
	db := openTestDB(t)
	manager := NewManager(db)
	if err := manager.Resume("m"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	if _, err := manager.AppendUser("build a landing page"); err != nil {
		t.Fatalf("AppendUser failed: %v", err)
	}
	batch := `[{"action":"create_update","filename":"index.html","content":"<html/>"}]`
	if _, err := manager.AppendAssistant(batch, "create/update: index.html"); err != nil {
		t.Fatalf("AppendAssistant failed: %v", err)
	}

	history := manager.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history turns, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "build a landing page" {
		t.Errorf("user turn wrong: %+v", history[0])
	}
	// The assistant turn forwards its batch JSON, not the summary.
	if history[1].Role != "assistant" || history[1].Content != batch {
		t.Errorf("assistant turn wrong: %+v", history[1])
	}
}

func TestManager_ResumeLoadsPersistedTurns(t *testing.T) {
	db := openTestDB(t)

	first := NewManager(db)
	if err := first.Resume("m"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	first.AppendUser("hello")
	first.AppendAssistant(`[{"action":"chat","content":"hi"}]`, "hi")
	id := first.ConversationID()

	second := NewManager(db)
	if err := second.Resume("m"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if second.ConversationID() != id {
		t.Errorf("resume should pick up the existing conversation, got %s", second.ConversationID())
	}
	turns := second.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(turns))
	}
	if turns[0].Content != "hello" {
		t.Errorf("persisted turn content wrong: %q", turns[0].Content)
	}
}

func TestManager_Reset(t *testing.T) {
	db := openTestDB(t)
	manager := NewManager(db)
	if err := manager.Resume("m"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	manager.AppendUser("hello")
	old := manager.ConversationID()

	if err := manager.Reset("m"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if manager.ConversationID() == old {
		t.Error("Reset should start a new conversation")
	}
	if len(manager.Turns()) != 0 {
		t.Error("Reset should clear the turns")
	}
}

func TestManager_TitleFromFirstPrompt(t *testing.T) {
	db := openTestDB(t)
	manager := NewManager(db)
	if err := manager.Resume("m"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	long := strings.Repeat("build something ", 20)
	if _, err := manager.AppendUser(long); err != nil {
		t.Fatalf("AppendUser failed: %v", err)
	}

	conversation, err := db.GetConversation(manager.ConversationID())
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if conversation.Title == "New session" {
		t.Error("first prompt should rename the conversation")
	}
	if len([]rune(conversation.Title)) > 63 {
		t.Errorf("title not truncated: %d runes", len([]rune(conversation.Title)))
	}
}

func TestManager_AppendWithoutConversation(t *testing.T) {
	manager := NewManager(openTestDB(t))
	if _, err := manager.AppendUser("hello"); err == nil {
		t.Error("append without an active conversation should fail")
	}
}
