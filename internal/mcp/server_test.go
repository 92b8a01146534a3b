package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/opener"
	"github.com/BeFlock/bereshit/internal/project"
	"github.com/BeFlock/bereshit/internal/registry"
	"github.com/BeFlock/bereshit/internal/telemetry"
)

type harness struct {
	session *mcp.ClientSession
	opener  *opener.Nop
	tel     *telemetry.TestTelemetry
	base    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := registry.NewStore(filepath.Join(t.TempDir(), "data"))
	nop := &opener.Nop{}
	svc := commands.NewService(store, project.NewFactory(store), nop)
	h := connect(t, svc)
	h.opener = nop
	return h
}

func connect(t *testing.T, cmds Commands) *harness {
	t.Helper()
	ctx := context.Background()
	tt := telemetry.NewTestTelemetry()

	srv, err := NewServer(&Config{
		Name:    "bereshit",
		Version: "test",
		Logger:  logging.NewNop(),
		Meter:   tt.Meter("test"),
	}, cmds)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return &harness{session: cs, tel: tt, base: t.TempDir()}
}

func (h *harness) call(t *testing.T, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	require.NoError(t, err)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestServer_ListsTools(t *testing.T) {
	h := newHarness(t)

	res, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"create_project", "delete_project", "list_projects", "open_project_folder"}, names)
}

func TestTools_ListEmpty(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "list_projects", nil)
	require.False(t, res.IsError)
	assert.JSONEq(t, `[]`, resultText(t, res))
}

func TestTools_CreateListDelete(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "create_project", map[string]any{
		"name":        "demo",
		"path":        h.base,
		"description": "first",
	})
	require.False(t, res.IsError, resultText(t, res))

	var created project.Project
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	assert.Equal(t, "demo", created.Name)
	assert.Equal(t, filepath.Join(h.base, "demo"), created.Path)
	require.NotNil(t, created.Description)
	assert.Equal(t, "first", *created.Description)
	assert.DirExists(t, created.Path)
	assert.FileExists(t, filepath.Join(created.Path, project.ConfigFileName))

	res = h.call(t, "list_projects", nil)
	var listed []project.Project
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	res = h.call(t, "delete_project", map[string]any{"project_id": created.ID})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), created.ID)

	res = h.call(t, "list_projects", nil)
	assert.JSONEq(t, `[]`, resultText(t, res))

	assert.Equal(t, int64(4), h.tel.CounterValue(t, "bereshit.mcp.tool.invocations_total"))
	assert.Equal(t, int64(0), h.tel.CounterValue(t, "bereshit.mcp.tool.errors_total"))
}

func TestTools_CreateWithoutDescription(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "create_project", map[string]any{"name": "bare", "path": h.base})
	require.False(t, res.IsError)

	var created project.Project
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	assert.Nil(t, created.Description)
}

func TestTools_CreateMakesMissingParents(t *testing.T) {
	h := newHarness(t)
	parent := filepath.Join(h.base, "nested", "parent")

	res := h.call(t, "create_project", map[string]any{"name": "deep", "path": parent})
	require.False(t, res.IsError, resultText(t, res))

	var created project.Project
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	assert.Equal(t, filepath.Join(parent, "deep"), created.Path)
	assert.DirExists(t, created.Path)
}

func TestCreateProjectInput_PathDescription(t *testing.T) {
	field, ok := reflect.TypeOf(createProjectInput{}).FieldByName("Path")
	require.True(t, ok)
	assert.Contains(t, field.Tag.Get("jsonschema"), "missing directories are created")
}

func TestTools_DeleteUnknownIsToolError(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "delete_project", map[string]any{"project_id": "missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), commands.MsgNotFound)
	assert.Equal(t, int64(1), h.tel.CounterValue(t, "bereshit.mcp.tool.errors_total"))
}

func TestTools_CreateBlankNameIsToolError(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "create_project", map[string]any{"name": "  ", "path": h.base})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), commands.MsgNameRequired)
}

func TestTools_OpenFolder(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "open_project_folder", map[string]any{"project_path": "/srv/work/demo"})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"/srv/work/demo"}, h.opener.Opened())
}

type failingCommands struct {
	err error
}

func (f failingCommands) ListProjects(context.Context) ([]project.Project, error) {
	return nil, f.err
}

func (f failingCommands) CreateProject(context.Context, commands.CreateRequest) (project.Project, error) {
	return project.Project{}, f.err
}

func (f failingCommands) DeleteProject(context.Context, string) error { return f.err }

func (f failingCommands) OpenProjectFolder(context.Context, string) error { return f.err }

func TestTools_ListFailurePropagatesMessage(t *testing.T) {
	h := connect(t, failingCommands{err: &commands.Error{
		Message: "Failed to parse projects file",
		Err:     project.ParseError("Failed to parse projects file", errors.New("unexpected EOF")),
	}})

	res := h.call(t, "list_projects", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Failed to parse projects file")
}

func TestNewServer_RequiresCommands(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", &commands.Error{Message: commands.MsgNotFound, Err: project.NotFoundError("x")}, "not_found"},
		{"parse", project.ParseError("parse", errors.New("bad")), "parse_error"},
		{"serialize", project.SerializeError("encode", errors.New("bad")), "serialize_error"},
		{"io", project.IOError("write", errors.New("disk full")), "io_error"},
		{"validation", &commands.Error{Message: commands.MsgNameRequired}, "validation_error"},
		{"other", errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorizeError(tt.err))
		})
	}
}
