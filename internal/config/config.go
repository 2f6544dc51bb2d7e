// internal/config/config.go
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey aborts startup: without a credential no interaction
// is possible.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not set; add it to the environment or .env")

// Config holds resolved application paths and model settings.
type Config struct {
	HomeDir       string
	AppDir        string
	LogDir        string
	CheckpointDir string
	DatabasePath  string
	WorkspaceDir  string
	APIKey        string
	Model         string
}

// fileConfig is the optional ~/.webweave/config.yaml. Environment
// variables win over file values.
type fileConfig struct {
	Model     string `yaml:"model"`
	Workspace string `yaml:"workspace"`
}

// Load resolves paths, creates the application directories and reads the
// credential and model settings. The workspace directory itself is
// created by the store, not here.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	appDir := filepath.Join(home, ".webweave")
	logDir := filepath.Join(appDir, "logs")
	checkpointDir := filepath.Join(appDir, "checkpoints")
	for _, dir := range []string{appDir, logDir, checkpointDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	var fc fileConfig
	if data, err := os.ReadFile(filepath.Join(appDir, "config.yaml")); err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
	}

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = fc.Model
	}

	workspaceDir := os.Getenv("WEBWEAVE_WORKSPACE")
	if workspaceDir == "" {
		workspaceDir = fc.Workspace
	}
	if workspaceDir == "" {
		workspaceDir = "workspace"
	}

	return &Config{
		HomeDir:       home,
		AppDir:        appDir,
		LogDir:        logDir,
		CheckpointDir: checkpointDir,
		DatabasePath:  filepath.Join(appDir, "webweave.db"),
		WorkspaceDir:  workspaceDir,
		APIKey:        apiKey,
		Model:         model,
	}, nil
}
