package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
)

// Commands is the command surface served as tools. *commands.Service
// implements it.
type Commands interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
	CreateProject(ctx context.Context, req commands.CreateRequest) (project.Project, error)
	DeleteProject(ctx context.Context, id string) error
	OpenProjectFolder(ctx context.Context, path string) error
}

// Server serves Commands over MCP.
type Server struct {
	mcp     *mcp.Server
	cmds    Commands
	metrics *Metrics
	logger  *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "bereshit")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Logger for structured logging
	Logger *logging.Logger

	// Meter for tool metrics. Defaults to the global meter provider.
	Meter metric.Meter
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bereshit",
		Version: "dev",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(cfg *Config, cmds Commands) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cmds == nil {
		return nil, fmt.Errorf("commands are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Meter == nil {
		cfg.Meter = otel.Meter(instrumentationName)
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		cmds:    cmds,
		metrics: NewMetrics(cfg.Meter, cfg.Logger),
		logger:  cfg.Logger,
	}
	s.registerTools()

	return s, nil
}

// Run serves on stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
