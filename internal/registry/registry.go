// Package registry persists the list of bereshit projects.
//
// The registry is a single JSON file holding an ordered array of projects:
//
//	{data_dir}/
//	└── projects.json      ← [ {id, name, path, ...}, ... ]
//
// Every mutation is a full read-modify-write of that file. The file and its
// directory are created on the first write; reading before that yields an
// empty list.
//
// Mutations are serialized within one Store, but nothing coordinates
// separate processes: two processes writing concurrently can lose an update
// (last writer wins on the whole file).
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FileName is the registry file inside the data directory.
const FileName = "projects.json"

const tracerName = "github.com/BeFlock/bereshit/internal/registry"

// Store reads and writes the project registry file.
type Store struct {
	mu       sync.Mutex // serializes read-modify-write cycles
	dataDir  string
	filePath string
	logger   *logging.Logger
	tracer   trace.Tracer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store operations.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTracer sets the tracer used for store spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// NewStore creates a store for {dataDir}/projects.json. Nothing is touched on
// disk until the first write.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		dataDir:  dataDir,
		filePath: filepath.Join(dataDir, FileName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.filePath
}

// DataDir returns the directory holding the registry file.
func (s *Store) DataDir() string {
	return s.dataDir
}

// List returns all registered projects in file order. A missing or empty
// file yields an empty slice.
func (s *Store) List(ctx context.Context) ([]project.Project, error) {
	ctx, span := s.tracer.Start(ctx, "registry.List")
	defer span.End()

	projects, err := s.load()
	if err != nil {
		s.fail(ctx, span, "list projects", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("registry.count", len(projects)))
	s.logger.Debug(ctx, "listed projects", zap.Int("count", len(projects)))
	return projects, nil
}

// Get returns the project with the given id.
func (s *Store) Get(ctx context.Context, id string) (project.Project, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Get",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	projects, err := s.load()
	if err != nil {
		s.fail(ctx, span, "get project", err)
		return project.Project{}, err
	}

	if i := indexOf(projects, id); i >= 0 {
		return projects[i], nil
	}

	err = project.NotFoundError(id)
	s.fail(ctx, span, "get project", err)
	return project.Project{}, err
}

// Rewrite replaces the registry file with projects.
func (s *Store) Rewrite(ctx context.Context, projects []project.Project) error {
	ctx, span := s.tracer.Start(ctx, "registry.Rewrite",
		trace.WithAttributes(attribute.Int("registry.count", len(projects))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(projects); err != nil {
		s.fail(ctx, span, "rewrite registry", err)
		return err
	}

	s.logger.Debug(ctx, "registry rewritten", zap.Int("count", len(projects)))
	return nil
}

// Upsert replaces the project with p.ID in place, or appends p if no such
// project exists, then rewrites the file.
func (s *Store) Upsert(ctx context.Context, p project.Project) error {
	ctx, span := s.tracer.Start(ctx, "registry.Upsert",
		trace.WithAttributes(attribute.String("project.id", p.ID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		s.fail(ctx, span, "upsert project", err)
		return err
	}

	replaced := false
	if i := indexOf(projects, p.ID); i >= 0 {
		projects[i] = p
		replaced = true
	} else {
		projects = append(projects, p)
	}
	span.SetAttributes(attribute.Bool("registry.replaced", replaced))

	if err := s.save(projects); err != nil {
		s.fail(ctx, span, "upsert project", err)
		return err
	}

	s.logger.Debug(ctx, "project upserted",
		zap.String("project.id", p.ID),
		zap.Bool("replaced", replaced),
		zap.Int("count", len(projects)),
	)
	return nil
}

// Remove deletes the project with the given id, keeping the order of the
// others. If no project has that id the file is left untouched and an
// ErrNotFound error is returned.
func (s *Store) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "registry.Remove",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		s.fail(ctx, span, "remove project", err)
		return err
	}

	i := indexOf(projects, id)
	if i < 0 {
		err := project.NotFoundError(id)
		s.fail(ctx, span, "remove project", err)
		return err
	}

	projects = append(projects[:i], projects[i+1:]...)
	if err := s.save(projects); err != nil {
		s.fail(ctx, span, "remove project", err)
		return err
	}

	s.logger.Debug(ctx, "project removed",
		zap.String("project.id", id),
		zap.Int("count", len(projects)),
	)
	return nil
}

// load reads the registry from disk.
func (s *Store) load() ([]project.Project, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []project.Project{}, nil
		}
		return nil, project.IOError("Failed to read projects file", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []project.Project{}, nil
	}

	var projects []project.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, project.ParseError("Failed to parse projects file", err)
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return projects, nil
}

// save writes the registry to disk.
func (s *Store) save(projects []project.Project) error {
	if projects == nil {
		projects = []project.Project{}
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return project.IOError("Failed to create app data directory", err)
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return project.SerializeError("Failed to serialize projects", err)
	}

	// Write atomically
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return project.IOError("Failed to write projects file", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return project.IOError("Failed to write projects file", err)
	}

	return nil
}

func (s *Store) fail(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, project.ErrNotFound) {
		s.logger.Debug(ctx, op+" failed", zap.Error(err))
		return
	}
	s.logger.Error(ctx, op+" failed", zap.Error(err))
}

func indexOf(projects []project.Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}
