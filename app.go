// app.go
package main

import (
	"context"
	"log"
	"sync"
	"time"

	"webweave/internal/checkpoint"
	"webweave/internal/command"
	"webweave/internal/config"
	"webweave/internal/database"
	"webweave/internal/eventhub"
	"webweave/internal/gemini"
	"webweave/internal/git"
	"webweave/internal/preview"
	"webweave/internal/session"
	"webweave/internal/watcher"
	"webweave/internal/workspace"
)

// App owns the application state and all managers. Bound methods in
// bindings.go are the only mutation path; the watcher goroutine only
// invalidates caches and emits refresh events.
type App struct {
	ctx context.Context
	mu  sync.RWMutex

	config      *config.Config
	store       *workspace.Store
	interpreter *command.Interpreter
	composer    *preview.Composer
	client      *gemini.Client
	sessions    *session.Manager
	db          *database.Database
	checkpoints *checkpoint.Manager
	repo        *git.Repo
	fsWatcher   *watcher.Watcher
	eventHub    *eventhub.EventHub

	// UI selection state. Deleting the selected file clears all three
	// (selection, editor content, and the composer's render marker).
	selectedFile  string
	editorContent string

	startupErr string
}

// hubReporter forwards inline store/interpreter messages to the UI.
type hubReporter struct {
	hub *eventhub.EventHub
}

func (r *hubReporter) Report(message string) {
	log.Printf("[webweave] %s", message)
	r.hub.EmitReport(message)
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts (Wails callback)
func (a *App) startup(ctx context.Context) {
	a.startupCommon(ctx)
}

// Startup is the exported version for the headless server
func (a *App) Startup(ctx context.Context) {
	a.startupCommon(ctx)
}

func (a *App) startupCommon(ctx context.Context) {
	a.ctx = ctx
	a.eventHub = eventhub.New(ctx)
	reporter := &hubReporter{hub: a.eventHub}

	cfg, err := config.Load()
	if err != nil {
		a.fail("Startup failed: " + err.Error())
		return
	}
	a.config = cfg

	store, err := workspace.Open(cfg.WorkspaceDir, reporter)
	if err != nil {
		a.fail("Failed to open workspace: " + err.Error())
		return
	}
	a.store = store
	a.interpreter = command.NewInterpreter(store, reporter)
	a.composer = preview.NewComposer(store)
	a.client = gemini.NewClient(gemini.DefaultBaseURL, cfg.APIKey, cfg.Model)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		a.fail("Failed to open database: " + err.Error())
		return
	}
	a.db = db

	a.sessions = session.NewManager(db)
	if err := a.sessions.Resume(a.client.Model()); err != nil {
		a.fail("Failed to resume session: " + err.Error())
		return
	}

	a.checkpoints = checkpoint.NewManager(checkpoint.NewStorage(cfg.CheckpointDir), store)

	repo, err := git.OpenOrInit(store.Root())
	if err != nil {
		// History is a convenience; the tool still works without it.
		reporter.Report("Workspace history unavailable: " + err.Error())
	} else {
		a.repo = repo
	}

	fsWatcher, err := watcher.New(store.Root(), 300*time.Millisecond, a.onWorkspaceEvent)
	if err != nil {
		reporter.Report("Workspace watcher unavailable: " + err.Error())
	} else {
		a.fsWatcher = fsWatcher
		if err := fsWatcher.Start(); err != nil {
			reporter.Report("Workspace watcher failed to start: " + err.Error())
		}
	}
}

func (a *App) fail(message string) {
	log.Printf("[webweave] %s", message)
	a.mu.Lock()
	a.startupErr = message
	a.mu.Unlock()
}

// shutdown is called when the app terminates (Wails callback)
func (a *App) shutdown(ctx context.Context) {
	a.Shutdown(ctx)
}

// Shutdown is the exported version for the headless server
func (a *App) Shutdown(ctx context.Context) {
	if a.fsWatcher != nil {
		a.fsWatcher.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// SetEventHubBroadcaster attaches the event sink once the transport exists.
func (a *App) SetEventHubBroadcaster(b eventhub.Broadcaster) {
	a.eventHub.SetBroadcaster(b)
}

// onWorkspaceEvent reacts to on-disk changes made outside the tool: the
// file list refreshes, and the preview cache is dropped when the change
// touches the selected file or the shared stylesheet.
func (a *App) onWorkspaceEvent(event watcher.Event) {
	a.mu.RLock()
	selected := a.selectedFile
	a.mu.RUnlock()

	if event.Path == selected || event.Path == preview.StylesheetName {
		a.composer.Reset()
		a.eventHub.EmitPreviewInvalidated(eventhub.PreviewInvalidatedEvent{Filename: selected})
	}
	a.eventHub.EmitWorkspaceChanged(eventhub.WorkspaceChangedEvent{
		Path:   event.Path,
		Change: string(event.Type),
	})
}

// commit records a workspace history entry; failures are inline reports,
// never fatal.
func (a *App) commit(message string) {
	if a.repo == nil {
		return
	}
	hash, err := a.repo.CommitAll(message)
	if err != nil {
		log.Printf("[webweave] commit failed: %v", err)
		a.eventHub.EmitReport("Could not record workspace history: " + err.Error())
		return
	}
	if hash != "" {
		a.eventHub.EmitGitCommitted(eventhub.GitCommittedEvent{Hash: hash, Message: message})
	}
}
