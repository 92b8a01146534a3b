package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
	"github.com/BeFlock/bereshit/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func sample(id, name string) project.Project {
	return project.Project{
		ID:           id,
		Name:         name,
		Path:         "/tmp/work/" + name,
		CreatedAt:    "2024-05-01T10:00:00Z",
		LastModified: "2024-05-01T10:00:00Z",
		Config:       project.DefaultConfig(),
	}
}

func ids(projects []project.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestStore_ListMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "not-created-yet"))

	projects, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	_, statErr := os.Stat(s.DataDir())
	assert.True(t, os.IsNotExist(statErr), "list must not create the data dir")
}

func TestStore_ListEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(" \n\t"), 0o644))

	projects, err := NewStore(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestStore_ListMalformed(t *testing.T) {
	tests := map[string]string{
		"invalid json":     "[{",
		"wrong shape":      `{"id": "x"}`,
		"wrong field type": `[{"id": 7}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

			_, err := NewStore(dir).List(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, project.ErrParse)
			assert.Contains(t, err.Error(), "Failed to parse projects file")
		})
	}
}

func TestStore_ListReadFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be cannot be read as a file.
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileName), 0o755))

	_, err := NewStore(dir).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrIO)
	assert.Contains(t, err.Error(), "Failed to read projects file")
}

func TestStore_RewriteCreatesDirAndIndents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "bereshit")
	s := NewStore(dir)

	require.NoError(t, s.Rewrite(context.Background(), []project.Project{sample("a", "alpha")}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[\n  {\n    \"id\": \"a\"")
	assert.Contains(t, string(data), `"description": null`)

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a write")
}

func TestStore_RewriteNilWritesEmptyArray(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Rewrite(context.Background(), nil))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestStore_RewriteDataDirBlocked(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewStore(filepath.Join(blocker, "data")).Rewrite(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrIO)
	assert.Contains(t, err.Error(), "Failed to create app data directory")
}

func TestStore_UpsertAppendsAndReplacesInPlace(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sample("a", "alpha")))
	require.NoError(t, s.Upsert(ctx, sample("b", "beta")))
	require.NoError(t, s.Upsert(ctx, sample("c", "gamma")))

	updated := sample("b", "beta-renamed")
	updated.Description = project.Description("now with notes")
	require.NoError(t, s.Upsert(ctx, updated))

	projects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(projects))
	assert.Equal(t, updated, projects[1])
}

func TestStore_Get(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("a", "alpha")))

	p, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Name)

	_, err = s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, project.ErrNotFound)
}

func TestStore_RemovePreservesOrder(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Upsert(ctx, sample(id, "p-"+id)))
	}

	require.NoError(t, s.Remove(ctx, "b"))

	projects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(projects))
}

func TestStore_RemoveAbsentLeavesFileUntouched(t *testing.T) {
	tl := logging.NewTestLogger()
	s := NewStore(t.TempDir(), WithLogger(tl.Logger))
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("a", "alpha")))

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	infoBefore, err := os.Stat(s.Path())
	require.NoError(t, err)

	err = s.Remove(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrNotFound)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	infoAfter, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime())

	tl.AssertNotLogged(t, zapcore.ErrorLevel, "remove project failed")
	tl.AssertLogged(t, zapcore.DebugLevel, "remove project failed")
}

func TestStore_RemoveOnMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Remove(context.Background(), "a")
	assert.ErrorIs(t, err, project.ErrNotFound)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_UpsertParseErrorDoesNotOverwrite(t *testing.T) {
	tl := logging.NewTestLogger()
	dir := t.TempDir()
	corrupt := []byte("{broken")
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), corrupt, 0o644))

	s := NewStore(dir, WithLogger(tl.Logger))
	err := s.Upsert(context.Background(), sample("a", "alpha"))
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrParse)

	data, readErr := os.ReadFile(s.Path())
	require.NoError(t, readErr)
	assert.Equal(t, corrupt, data)
	tl.AssertLogged(t, zapcore.ErrorLevel, "upsert project failed")
}

func TestStore_ConcurrentUpsertsAreNotLost(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Upsert(ctx, sample(fmt.Sprintf("id-%02d", i), "p")))
		}(i)
	}
	wg.Wait()

	projects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, n)
}

func TestStore_FileIsReadableByOtherStores(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, NewStore(dir).Upsert(ctx, sample("a", "alpha")))

	projects, err := NewStore(dir).List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	var raw []map[string]any
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "alpha", raw[0]["name"])
}

func TestStore_Spans(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	s := NewStore(t.TempDir(), WithTracer(tt.Tracer("test")))
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sample("a", "alpha")))
	_, err := s.List(ctx)
	require.NoError(t, err)
	assert.Error(t, s.Remove(ctx, "nope"))

	tt.AssertSpanExists(t, "registry.Upsert")
	tt.AssertSpanAttribute(t, "registry.Upsert", "project.id", "a")
	tt.AssertSpanAttribute(t, "registry.Upsert", "registry.replaced", false)
	tt.AssertSpanAttribute(t, "registry.List", "registry.count", int64(1))
	tt.AssertSpanExists(t, "registry.Remove")
}
