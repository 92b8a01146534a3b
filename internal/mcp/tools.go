package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
)

type listProjectsInput struct{}

type listProjectsOutput struct {
	Projects []project.Project `json:"projects"`
	Count    int               `json:"count"`
}

type createProjectInput struct {
	Name        string `json:"name" jsonschema:"Project name, also the directory name created under path"`
	Path        string `json:"path" jsonschema:"Parent directory for the new project; missing directories are created"`
	Description string `json:"description,omitempty" jsonschema:"Optional free-text description"`
}

type createProjectOutput struct {
	Project project.Project `json:"project"`
}

type deleteProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"Registry id of the project to remove"`
}

type deleteProjectOutput struct {
	ProjectID string `json:"project_id"`
	Deleted   bool   `json:"deleted"`
}

type openProjectFolderInput struct {
	ProjectPath string `json:"project_path" jsonschema:"Directory to reveal in the host file browser"`
}

type openProjectFolderOutput struct {
	ProjectPath string `json:"project_path"`
	Opened      bool   `json:"opened"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_projects",
		Description: "List every registered project in registry order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listProjectsInput) (result *mcp.CallToolResult, output listProjectsOutput, err error) {
		ctx, done := s.begin(ctx, "list_projects")
		defer func() { done(err) }()

		projects, err := s.cmds.ListProjects(ctx)
		if err != nil {
			return nil, listProjectsOutput{}, err
		}
		if projects == nil {
			projects = []project.Project{}
		}

		text, err := jsonText(projects)
		if err != nil {
			return nil, listProjectsOutput{}, err
		}
		return text, listProjectsOutput{Projects: projects, Count: len(projects)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a project directory with a bereshit.json and register it",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createProjectInput) (result *mcp.CallToolResult, output createProjectOutput, err error) {
		ctx, done := s.begin(ctx, "create_project")
		defer func() { done(err) }()

		p, err := s.cmds.CreateProject(ctx, commands.CreateRequest{
			Name:        args.Name,
			Path:        args.Path,
			Description: project.Description(args.Description),
		})
		if err != nil {
			return nil, createProjectOutput{}, err
		}

		text, err := jsonText(p)
		if err != nil {
			return nil, createProjectOutput{}, err
		}
		return text, createProjectOutput{Project: p}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_project",
		Description: "Remove a project from the registry. Files on disk are left in place",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteProjectInput) (result *mcp.CallToolResult, output deleteProjectOutput, err error) {
		ctx, done := s.begin(ctx, "delete_project")
		defer func() { done(err) }()

		if err = s.cmds.DeleteProject(ctx, args.ProjectID); err != nil {
			return nil, deleteProjectOutput{}, err
		}

		return textResult(fmt.Sprintf("Deleted project %s", args.ProjectID)),
			deleteProjectOutput{ProjectID: args.ProjectID, Deleted: true}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "open_project_folder",
		Description: "Open a directory in the host file browser",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args openProjectFolderInput) (result *mcp.CallToolResult, output openProjectFolderOutput, err error) {
		ctx, done := s.begin(ctx, "open_project_folder")
		defer func() { done(err) }()

		if err = s.cmds.OpenProjectFolder(ctx, args.ProjectPath); err != nil {
			return nil, openProjectFolderOutput{}, err
		}

		return textResult(fmt.Sprintf("Opened %s", args.ProjectPath)),
			openProjectFolderOutput{ProjectPath: args.ProjectPath, Opened: true}, nil
	})
}

// begin attaches the server logger to ctx and returns the completion hook
// that records metrics for the call.
func (s *Server) begin(ctx context.Context, tool string) (context.Context, func(error)) {
	start := time.Now()
	ctx = logging.WithLogger(ctx, s.logger)
	return ctx, func(err error) {
		s.metrics.RecordInvocation(ctx, tool, time.Since(start), err)
		if err != nil {
			s.logger.Debug(ctx, "tool call failed",
				zap.String("tool", tool),
				zap.Error(err),
			)
		}
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonText(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(data)), nil
}
