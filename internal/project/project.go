package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

const (
	// ConfigDir is the directory name for project configuration and state.
	ConfigDir = ".orch"
	// ConfigFile is the name of the project config file.
	ConfigFile = "config.toml"
	// TrackingDB is the name of the tracking database file.
	TrackingDB = "tracking.db"
	// LockFile is the name of the daemon lock file.
	LockFile = "daemon.lock"
	// StatusFile is the name of the daemon status snapshot.
	StatusFile = "status.json"
)

// ErrNotFound is returned when no project directory exists above the start directory.
var ErrNotFound = errors.New("no project found")

// Project represents an orchestrator project.
type Project struct {
	Root   string  // Project directory path
	Config *Config // Parsed config.toml
	DB     *db.DB  // Tracking database
}

// Find finds a project from a flag value or current directory.
// If flagValue is non-empty, uses that path; otherwise uses cwd.
func Find(ctx context.Context, flagValue string) (*Project, error) {
	if flagValue != "" {
		return find(ctx, flagValue)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return find(ctx, cwd)
}

// find walks up from startDir looking for a .orch/ directory.
func find(ctx context.Context, startDir string) (*Project, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ConfigDir, ConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return load(ctx, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return nil, fmt.Errorf("%w (no %s directory above %s)", ErrNotFound, ConfigDir, startDir)
		}
		dir = parent
	}
}

// load loads a project from the given root directory.
func load(ctx context.Context, root string) (*Project, error) {
	configPath := filepath.Join(root, ConfigDir, ConfigFile)
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	proj := &Project{
		Root:   root,
		Config: cfg,
	}

	database, err := db.OpenPath(ctx, proj.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking database: %w", err)
	}
	proj.DB = database

	// Initialize logging to .orch/daemon.log
	if err := logging.Init(root); err != nil {
		logging.Warn("failed to initialize logging", "error", err)
	}

	return proj, nil
}

// Create initializes a new project at the given directory for owner/repo.
func Create(ctx context.Context, dir, owner, repo string) (*Project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDir)
	if _, err := os.Stat(filepath.Join(configDir, ConfigFile)); err == nil {
		return nil, fmt.Errorf("project already exists at %s", absDir)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	cfg := &Config{
		Project: ProjectConfig{
			Name:      filepath.Base(absDir),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		GitHub: GitHubConfig{
			Owner: owner,
			Repo:  repo,
		},
	}

	proj := &Project{Root: absDir, Config: cfg}
	if err := cfg.SaveDocumentedConfig(proj.ConfigPath()); err != nil {
		return nil, err
	}

	database, err := db.OpenPath(ctx, proj.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracking database: %w", err)
	}
	database.Close()

	return proj, nil
}

// ConfigPath returns the path of config.toml.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigDir, ConfigFile)
}

// DBPath returns the path of the tracking database.
func (p *Project) DBPath() string {
	return filepath.Join(p.Root, ConfigDir, TrackingDB)
}

// LockPath returns the path of the daemon lock file.
func (p *Project) LockPath() string {
	return filepath.Join(p.Root, ConfigDir, LockFile)
}

// StatusPath returns the path of the status snapshot.
func (p *Project) StatusPath() string {
	return filepath.Join(p.Root, ConfigDir, StatusFile)
}

// LogPath returns the path of the daemon log.
func (p *Project) LogPath() string {
	return filepath.Join(p.Root, ConfigDir, logging.LogFileName)
}

// Reload re-reads config.toml. On error the current config is kept.
func (p *Project) Reload() error {
	cfg, err := LoadConfig(p.ConfigPath())
	if err != nil {
		return err
	}
	p.Config = cfg
	return nil
}

// Save writes the current config back to config.toml.
func (p *Project) Save() error {
	return p.Config.SaveDocumentedConfig(p.ConfigPath())
}

// Close closes any open resources.
func (p *Project) Close() error {
	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}
