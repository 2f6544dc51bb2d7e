// bindings.go
package main

import (
	"errors"
	"fmt"

	"webweave/internal/checkpoint"
	"webweave/internal/command"
	"webweave/internal/database"
	"webweave/internal/eventhub"
	"webweave/internal/gemini"
	"webweave/internal/git"
	"webweave/internal/preview"
)

// ready guards bindings against a failed startup: nothing is usable
// until configuration and storage came up.
func (a *App) ready() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.startupErr != "" {
		return errors.New(a.startupErr)
	}
	if a.store == nil {
		return errors.New("application is still starting")
	}
	return nil
}

// GetStartupError returns the startup-fatal message, if any, so the
// frontend can show it instead of the normal UI.
func (a *App) GetStartupError() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.startupErr
}

// ModelName returns the model identifier in use, for the caption.
func (a *App) ModelName() string {
	if a.client == nil {
		return ""
	}
	return a.client.Model()
}

// ===== Workspace Bindings =====

// ListWorkspaceFiles returns the sorted workspace file names.
func (a *App) ListWorkspaceFiles() []string {
	if err := a.ready(); err != nil {
		return nil
	}
	return a.store.List()
}

// SelectFile makes a file the current selection and returns its content.
// An empty name clears the selection. Selecting always drops the cached
// render so the preview recomposes from fresh content.
func (a *App) SelectFile(name string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}

	a.composer.Reset()

	if name == "" {
		a.mu.Lock()
		a.selectedFile = ""
		a.editorContent = ""
		a.mu.Unlock()
		return "", nil
	}

	content, ok := a.store.Read(name)
	if !ok {
		return "", fmt.Errorf("could not read file '%s'", name)
	}

	a.mu.Lock()
	a.selectedFile = name
	a.editorContent = content
	a.mu.Unlock()
	return content, nil
}

// SelectedFile returns the current selection, or "".
func (a *App) SelectedFile() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selectedFile
}

// SaveSelectedFile persists a manual edit of the selected file.
func (a *App) SaveSelectedFile(content string) error {
	if err := a.ready(); err != nil {
		return err
	}

	a.mu.RLock()
	name := a.selectedFile
	a.mu.RUnlock()
	if name == "" {
		return errors.New("no file selected")
	}

	if !a.store.Write(name, content) {
		return fmt.Errorf("failed to save '%s'", name)
	}

	a.mu.Lock()
	a.editorContent = content
	a.mu.Unlock()

	a.composer.Reset()
	a.eventHub.EmitPreviewInvalidated(eventhub.PreviewInvalidatedEvent{Filename: name})
	a.commit("Manual save: " + name)
	return nil
}

// DeleteWorkspaceFile removes a file. When it is the selected one, the
// selection, cached editor content and cached render marker are cleared.
func (a *App) DeleteWorkspaceFile(name string) error {
	if err := a.ready(); err != nil {
		return err
	}

	if !a.store.Delete(name) {
		return fmt.Errorf("could not delete '%s'", name)
	}

	a.mu.Lock()
	wasSelected := a.selectedFile == name
	if wasSelected {
		a.selectedFile = ""
		a.editorContent = ""
	}
	a.mu.Unlock()

	if wasSelected {
		a.composer.Reset()
	}
	a.commit("Delete " + name)
	return nil
}

// ===== Chat Bindings =====

// ChatResult is what one chat exchange returns to the frontend.
type ChatResult struct {
	Records []command.Record      `json:"records"`
	Summary string                `json:"summary"`
	Usage   *gemini.UsageMetadata `json:"usage,omitempty"`
}

// SendChat runs one full exchange: persist the user turn, call the
// model with the forwarded history and workspace listing, apply the
// reply as an operation batch, persist the assistant turn, and record
// workspace history. Model failures arrive as a synthetic chat batch,
// so this method only errors on local persistence problems.
func (a *App) SendChat(prompt string) (*ChatResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	if _, err := a.sessions.AppendUser(prompt); err != nil {
		return nil, err
	}
	a.eventHub.EmitChatTurn(eventhub.ChatTurnEvent{Role: "user", Summary: prompt})

	reply, usage := a.client.Reply(a.ctx, a.sessions.History(), a.store.List())
	records := a.interpreter.Apply(reply)

	summary := command.Summary(records)
	if _, err := a.sessions.AppendAssistant(command.BatchJSON(records), summary); err != nil {
		return nil, err
	}
	a.eventHub.EmitChatTurn(eventhub.ChatTurnEvent{Role: "assistant", Summary: summary})

	if mutated(records) {
		a.composer.Reset()
		a.eventHub.EmitPreviewInvalidated(eventhub.PreviewInvalidatedEvent{Filename: a.SelectedFile()})
		a.commit("AI: " + firstLine(prompt))
	}

	return &ChatResult{Records: records, Summary: summary, Usage: usage}, nil
}

// mutated reports whether any batch element touched the filesystem.
func mutated(records []command.Record) bool {
	for _, r := range records {
		if r.Warning != "" {
			continue
		}
		if r.Action == command.ActionCreateUpdate || r.Action == command.ActionDelete {
			return true
		}
	}
	return false
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
		if i > 72 {
			return text[:i]
		}
	}
	return text
}

// GetConversation returns the active conversation's turns in order.
func (a *App) GetConversation() []*database.Turn {
	if err := a.ready(); err != nil {
		return nil
	}
	return a.sessions.Turns()
}

// ResetConversation starts a fresh conversation.
func (a *App) ResetConversation() error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.sessions.Reset(a.client.Model())
}

// ===== Preview Bindings =====

// RenderPreview composes the preview for the selected file. A non-HTML
// selection returns nil without error.
func (a *App) RenderPreview() (*preview.Result, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.composer.Compose(a.SelectedFile())
}

// ExportPreviewLink returns the composed preview as a data: URI.
func (a *App) ExportPreviewLink() (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}

	result, err := a.composer.Compose(a.SelectedFile())
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", errors.New("no HTML file selected")
	}
	return preview.ExportDataURI(result.HTML)
}

// ===== Checkpoint Bindings =====

// CreateCheckpoint snapshots the current workspace under a label.
func (a *App) CreateCheckpoint(label string) (*checkpoint.Result, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	result, err := a.checkpoints.Create(label)
	if err != nil {
		return nil, err
	}
	a.eventHub.EmitCheckpointCreated(eventhub.CheckpointCreatedEvent{
		ID:    result.Checkpoint.ID,
		Label: result.Checkpoint.Label,
	})
	return result, nil
}

// ListCheckpoints returns all snapshots, newest first.
func (a *App) ListCheckpoints() ([]*checkpoint.Checkpoint, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.checkpoints.List()
}

// RestoreCheckpoint rewrites the workspace to a snapshot, taking a
// safety snapshot of the current state first.
func (a *App) RestoreCheckpoint(id string) (*checkpoint.Result, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	if _, err := a.checkpoints.Create("Before restore " + id); err != nil {
		return nil, fmt.Errorf("safety snapshot failed: %w", err)
	}

	result, err := a.checkpoints.Restore(id)
	if err != nil {
		return nil, err
	}

	a.composer.Reset()
	a.commit("Restore checkpoint " + id)
	return result, nil
}

// DeleteCheckpoint removes a snapshot.
func (a *App) DeleteCheckpoint(id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.checkpoints.Delete(id)
}

// ===== History Bindings =====

// GitLog returns up to limit workspace history entries, newest first.
func (a *App) GitLog(limit int) ([]git.CommitInfo, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.Log(limit)
}

// GitStatus returns uncommitted workspace changes.
func (a *App) GitStatus() ([]git.FileStatus, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.Status()
}

// ===== Settings Bindings =====

// GetSetting reads one persisted setting ("" when unset).
func (a *App) GetSetting(key string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	return a.db.GetSetting(key)
}

// SaveSetting persists one setting.
func (a *App) SaveSetting(key, value string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.db.SaveSetting(key, value)
}
