package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registrar persists a project record. The registry store implements it.
type Registrar interface {
	Upsert(ctx context.Context, p Project) error
}

// Factory creates project directories and registers the resulting records.
type Factory struct {
	registrar Registrar
	now       func() time.Time
	newID     func() string
	dirPerm   os.FileMode
	filePerm  os.FileMode
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) { f.now = now }
}

// WithIDGenerator overrides project id generation.
func WithIDGenerator(gen func() string) FactoryOption {
	return func(f *Factory) { f.newID = gen }
}

// NewFactory creates a Factory that registers projects with reg.
func NewFactory(reg Registrar, opts ...FactoryOption) *Factory {
	f := &Factory{
		registrar: reg,
		now:       time.Now,
		newID:     uuid.NewString,
		dirPerm:   0o755,
		filePerm:  0o644,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create makes {basePath}/{name}, writes the default bereshit.json into it
// and registers a new Project. Directory creation is idempotent, so calling
// Create twice with the same arguments yields two records with distinct ids.
//
// Create is not transactional: on failure, any directory or config file
// already written is left in place.
func (f *Factory) Create(ctx context.Context, name, basePath string, description *string) (Project, error) {
	log := logging.FromContext(ctx)
	projectPath := filepath.Join(basePath, name)

	if err := os.MkdirAll(projectPath, f.dirPerm); err != nil {
		return Project{}, IOError("Failed to create project directory", err)
	}

	cfg := DefaultConfig()
	if err := WriteConfig(projectPath, cfg, f.filePerm); err != nil {
		return Project{}, err
	}

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		absPath = projectPath
	}

	now := f.now().UTC().Format(TimestampLayout)
	p := Project{
		ID:           f.newID(),
		Name:         name,
		Path:         absPath,
		CreatedAt:    now,
		LastModified: now,
		Description:  description,
		Config:       cfg,
	}

	if err := f.registrar.Upsert(ctx, p); err != nil {
		log.Warn(ctx, "project directory left without registry entry",
			zap.String("path", absPath),
			zap.Error(err),
		)
		return Project{}, err
	}

	log.Debug(ctx, "project created",
		zap.String("project.id", p.ID),
		zap.String("path", p.Path),
	)
	return p, nil
}

// WriteConfig writes cfg as indented JSON to {projectPath}/bereshit.json,
// replacing any existing file.
func WriteConfig(projectPath string, cfg ProjectConfig, perm os.FileMode) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return SerializeError("Failed to serialize config", err)
	}

	configPath := filepath.Join(projectPath, ConfigFileName)
	if err := os.WriteFile(configPath, data, perm); err != nil {
		return IOError("Failed to write config file", err)
	}
	return nil
}

// LoadConfig reads {projectPath}/bereshit.json.
func LoadConfig(projectPath string) (ProjectConfig, error) {
	configPath := filepath.Join(projectPath, ConfigFileName)
	data, err := os.ReadFile(configPath) //nolint:gosec // path comes from the project registry
	if err != nil {
		return ProjectConfig{}, IOError("Failed to read config file", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, ParseError("Failed to parse config file", fmt.Errorf("%s: %w", configPath, err))
	}
	return cfg, nil
}
