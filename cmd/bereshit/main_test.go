package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/BeFlock/bereshit/internal/opener"
	"github.com/BeFlock/bereshit/internal/project"
	"github.com/BeFlock/bereshit/internal/registry"
)

type cli struct {
	dataDir string
	base    string
	opener  *opener.Nop
	config  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{
		dataDir: filepath.Join(dir, "data"),
		base:    t.TempDir(),
		opener:  &opener.Nop{},
		config:  filepath.Join(dir, "missing.yaml"),
	}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return c.runContext(context.Background(), &bytes.Buffer{}, args...)
}

func (c *cli) runContext(ctx context.Context, out io.Writer, args ...string) (string, error) {
	cmd := newRootCmd(&rootOptions{folderOpener: c.opener})
	var stderr bytes.Buffer
	cmd.SetOut(out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", c.config, "--data-dir", c.dataDir}, args...))
	err := cmd.ExecuteContext(ctx)
	if b, ok := out.(*bytes.Buffer); ok {
		return b.String(), err
	}
	return "", err
}

func (c *cli) create(t *testing.T, name string, extra ...string) project.Project {
	t.Helper()
	out, err := c.run(t, append([]string{"create", name, "--path", c.base, "-o", "json"}, extra...)...)
	require.NoError(t, err)

	var p project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	return p
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(&rootOptions{})

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"list", "show", "create", "delete", "open", "watch", "mcp", "config"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "data-dir", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestList_EmptyRegistry(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects registered.")

	out, err = c.run(t, "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestCreate_ThenListFormats(t *testing.T) {
	c := newCLI(t)

	p := c.create(t, "demo", "--description", "first")
	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, filepath.Join(c.base, "demo"), p.Path)
	assert.Equal(t, "first", p.DescriptionText())
	assert.FileExists(t, filepath.Join(p.Path, project.ConfigFileName))

	out, err := c.run(t, "list", "-o", "json")
	require.NoError(t, err)
	var listed []project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	out, err = c.run(t, "list", "-o", "yaml")
	require.NoError(t, err)
	var fromYAML []project.Project
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, p.ID, fromYAML[0].ID)
	assert.Equal(t, "first", fromYAML[0].DescriptionText())

	out, err = c.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, p.ID)
}

func TestCreate_TableOutput(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "create", "notes", "--path", c.base)
	require.NoError(t, err)
	assert.Contains(t, out, "Created project notes")
	assert.Contains(t, out, filepath.Join(c.base, "notes"))
}

func TestCreate_MissingParentsAreCreated(t *testing.T) {
	c := newCLI(t)
	parent := filepath.Join(c.base, "not", "yet")

	out, err := c.run(t, "create", "demo", "--path", parent, "-o", "json")
	require.NoError(t, err)

	var p project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(parent, "demo"), p.Path)
	assert.FileExists(t, filepath.Join(p.Path, project.ConfigFileName))
}

func TestCreateCmd_HelpDescribesParentCreation(t *testing.T) {
	cmd := newCreateCmd(&rootOptions{})
	assert.Contains(t, cmd.Long, "Missing parent directories")
	assert.NotContains(t, cmd.Long, "must already exist")
}

func TestCreate_WithoutDescriptionIsNull(t *testing.T) {
	c := newCLI(t)

	p := c.create(t, "bare")
	assert.Nil(t, p.Description)
}

func TestCreate_BlankNameFails(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "create", " ", "--path", c.base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestCreate_ParentIsFileFails(t *testing.T) {
	c := newCLI(t)
	parent := filepath.Join(c.base, "plain-file")
	writeFile(t, parent, "x")

	_, err := c.run(t, "create", "demo", "--path", parent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to create project directory")
}

func TestShow(t *testing.T) {
	c := newCLI(t)
	p := c.create(t, "demo")

	out, err := c.run(t, "show", p.ID, "-o", "json")
	require.NoError(t, err)
	var shown project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, p.ID, shown.ID)
	assert.Equal(t, project.DefaultConfig(), shown.Config)

	out, err = c.run(t, "show", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "project_type")
	assert.Contains(t, out, project.DefaultProjectType)
}

func TestShow_UnknownID(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "show", "missing")
	require.Error(t, err)
	assert.Equal(t, "Project not found", err.Error())
}

func TestDelete(t *testing.T) {
	c := newCLI(t)
	keep := c.create(t, "keep")
	drop := c.create(t, "drop")

	out, err := c.run(t, "delete", drop.ID)
	require.NoError(t, err)
	assert.Contains(t, out, drop.ID)

	out, err = c.run(t, "list", "-o", "json")
	require.NoError(t, err)
	var listed []project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, keep.ID, listed[0].ID)
	assert.DirExists(t, drop.Path, "delete must leave the directory on disk")

	_, err = c.run(t, "delete", drop.ID)
	require.Error(t, err)
	assert.Equal(t, "Project not found", err.Error())
}

func TestOpen_ByIDAndPath(t *testing.T) {
	c := newCLI(t)
	p := c.create(t, "demo")

	_, err := c.run(t, "open", p.ID)
	require.NoError(t, err)

	_, err = c.run(t, "open", c.base)
	require.NoError(t, err)

	assert.Equal(t, []string{p.Path, c.base}, c.opener.Opened())
}

func TestOpen_UnknownTarget(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "open", "no-such-project")
	require.Error(t, err)
	assert.Empty(t, c.opener.Opened())
}

func TestList_InvalidFormat(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestList_CorruptRegistry(t *testing.T) {
	c := newCLI(t)
	store := registry.NewStore(c.dataDir)
	require.NoError(t, store.Rewrite(context.Background(), nil))
	writeFile(t, store.Path(), "{not json")

	_, err := c.run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to parse projects file")
}

func TestConfig_PrintsEffectiveSettings(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "--log-level", "debug", "config")
	require.NoError(t, err)

	var printed map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, c.dataDir, printed["registry"]["data_dir"])
	assert.Equal(t, "debug", printed["logging"]["level"])
}

func TestConfig_InvalidLogLevel(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "--log-level", "loud", "config")
	require.Error(t, err)
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_PrintsChanges(t *testing.T) {
	c := newCLI(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		_, err := c.runContext(ctx, out, "watch", "-o", "json")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[]")
	}, 5*time.Second, 20*time.Millisecond)

	// Give the watcher time to subscribe before writing.
	time.Sleep(200 * time.Millisecond)

	other := registry.NewStore(c.dataDir)
	require.NoError(t, other.Upsert(context.Background(), project.Project{
		ID:   "external",
		Name: "from-another-process",
		Path: "/srv/elsewhere",
	}))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "from-another-process")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
