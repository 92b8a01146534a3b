// Package commands implements the operations exposed to frontends: the CLI
// and the MCP server call these and nothing below them.
//
// Every failure is reported as an *Error carrying a single human-readable
// message.
package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/opener"
	"github.com/BeFlock/bereshit/internal/project"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/BeFlock/bereshit/internal/commands"

// Messages returned to frontends.
const (
	MsgNotFound     = "Project not found"
	MsgNameRequired = "Project name is required"
	MsgPathRequired = "Project path is required"
)

// Error is the failure value returned by every command.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// toError converts a lower-layer error into the frontend message.
func toError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, project.ErrNotFound) {
		return &Error{Message: MsgNotFound, Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}

// Store is the registry surface the commands need.
type Store interface {
	List(ctx context.Context) ([]project.Project, error)
	Get(ctx context.Context, id string) (project.Project, error)
	Remove(ctx context.Context, id string) error
}

// Creator creates and registers a project.
type Creator interface {
	Create(ctx context.Context, name, basePath string, description *string) (project.Project, error)
}

// CreateRequest holds the arguments of CreateProject.
type CreateRequest struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Description *string `json:"description,omitempty"`
}

// Service wires the registry, the factory and the folder opener together.
type Service struct {
	store   Store
	creator Creator
	opener  opener.FolderOpener
	logger  *logging.Logger
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for command outcomes.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer sets the tracer for command spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a Service.
func NewService(store Store, creator Creator, fo opener.FolderOpener, opts ...Option) *Service {
	s := &Service{
		store:   store,
		creator: creator,
		opener:  fo,
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

// ListProjects returns every registered project in registry order.
func (s *Service) ListProjects(ctx context.Context) ([]project.Project, error) {
	ctx, span := s.start(ctx, "list_projects")
	defer span.End()

	projects, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	s.logger.Info(ctx, "projects listed", zap.Int("count", len(projects)))
	return projects, nil
}

// GetProject returns one project by id.
func (s *Service) GetProject(ctx context.Context, id string) (project.Project, error) {
	ctx, span := s.start(ctx, "get_project")
	defer span.End()
	ctx = s.tagProject(ctx, span, id)

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return project.Project{}, s.fail(ctx, span, err)
	}
	return p, nil
}

// CreateProject creates {path}/{name}, writes its bereshit.json and
// registers it. A blank description is stored as absent.
func (s *Service) CreateProject(ctx context.Context, req CreateRequest) (project.Project, error) {
	ctx, span := s.start(ctx, "create_project")
	defer span.End()

	if strings.TrimSpace(req.Name) == "" {
		return project.Project{}, s.fail(ctx, span, &Error{Message: MsgNameRequired})
	}
	if strings.TrimSpace(req.Path) == "" {
		return project.Project{}, s.fail(ctx, span, &Error{Message: MsgPathRequired})
	}

	var desc *string
	if req.Description != nil {
		desc = project.Description(*req.Description)
	}

	p, err := s.creator.Create(ctx, req.Name, req.Path, desc)
	if err != nil {
		return project.Project{}, s.fail(ctx, span, err)
	}

	ctx = s.tagProject(ctx, span, p.ID)
	s.logger.Info(ctx, "project created",
		zap.String("name", p.Name),
		zap.String("path", p.Path),
	)
	return p, nil
}

// DeleteProject removes the registry entry. The project directory is kept.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	ctx, span := s.start(ctx, "delete_project")
	defer span.End()
	ctx = s.tagProject(ctx, span, id)

	if err := s.store.Remove(ctx, id); err != nil {
		return s.fail(ctx, span, err)
	}

	s.logger.Info(ctx, "project deleted")
	return nil
}

// OpenProjectFolder reveals path in the host file browser.
func (s *Service) OpenProjectFolder(ctx context.Context, path string) error {
	ctx, span := s.start(ctx, "open_project_folder")
	defer span.End()
	span.SetAttributes(attribute.String("project.path", path))

	if err := s.opener.OpenFolder(ctx, path); err != nil {
		return s.fail(ctx, span, err)
	}

	s.logger.Info(ctx, "project folder opened", zap.String("path", path))
	return nil
}

func (s *Service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "commands."+op)
	ctx = logging.WithLogger(ctx, s.logger)
	return logging.WithOperation(ctx, op), span
}

func (s *Service) tagProject(ctx context.Context, span trace.Span, id string) context.Context {
	span.SetAttributes(attribute.String("project.id", id))
	return logging.WithProjectID(ctx, id)
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error) error {
	ce := toError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, ce.Message)
	s.logger.Error(ctx, "command failed", zap.String("message", ce.Message), zap.Error(err))
	return ce
}
