package project_sandbox

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"testing"

	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject_SlugAndSuffix(t *testing.T) {
	root := filepath.Join(t.TempDir(), "lovable")
	sandbox := NewProjectSandbox(root, nil)

	first, err := sandbox.CreateProject("My Todo App")
	require.NoError(t, err)
	second, err := sandbox.CreateProject("My Todo App")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, root, filepath.Dir(first))
	assert.Regexp(t, regexp.MustCompile(`^my-todo-app-[0-9a-f]{8}$`), filepath.Base(first))

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateProject_EmptyNameFallsBack(t *testing.T) {
	sandbox := NewProjectSandbox(t.TempDir(), nil)

	dir, err := sandbox.CreateProject("  ")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^project-[0-9a-f]{8}$`), filepath.Base(dir))
}

func TestCreateProject_IOError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a file blocking directory creation")
	}
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewProjectSandbox(filepath.Join(blocker, "root"), nil).CreateProject("demo")

	require.Error(t, err)
	assert.True(t, IsIOError(err))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "a-b-c", Slugify("a/b\\c"))
	assert.Equal(t, "project", Slugify(""))
}

func TestMaterialize_LastWriteWinsAndCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)

	report, err := sandbox.Materialize(root, []parser_models.GeneratedFile{
		{Path: "src/components/deep/Card.tsx", Content: "first"},
		{Path: "src/components/deep/Card.tsx", Content: "second"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "src", "components", "deep", "Card.tsx"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
	assert.Equal(t, []string{"src/components/deep/Card.tsx", "src/components/deep/Card.tsx"}, report.Written)
	assert.Empty(t, report.Failed)
}

func TestMaterialize_UnchangedContentIsNotRewritten(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)
	files := []parser_models.GeneratedFile{{Path: "index.html", Content: "<html></html>"}}

	_, err := sandbox.Materialize(root, files)
	require.NoError(t, err)

	report, err := sandbox.Materialize(root, files)
	require.NoError(t, err)

	assert.Empty(t, report.Written)
	assert.Equal(t, []string{"index.html"}, report.Unchanged)
	assert.Equal(t, []string{"index.html"}, report.Applied())
}

func TestMaterialize_PartialSuccess(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)

	report, err := sandbox.Materialize(root, []parser_models.GeneratedFile{
		{Path: "../escape.txt", Content: "nope"},
		{Path: "ok.txt", Content: "fine"},
		{Path: "/etc/absolute.txt", Content: "nope"},
		{Path: "", Content: "nope"},
	})

	require.Error(t, err)
	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Len(t, writeErr.Failures, 3)
	assert.ErrorIs(t, err, ErrPathOutsideRoot)

	assert.Equal(t, []string{"ok.txt"}, report.Written)
	assert.FileExists(t, filepath.Join(root, "ok.txt"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escape.txt"))
}

func TestMaterialize_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)

	_, err := sandbox.Materialize(root, []parser_models.GeneratedFile{{Path: "a.txt", Content: "a"}})
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestExportZip_SkipsExcludedPaths(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)

	_, err := sandbox.Materialize(root, []parser_models.GeneratedFile{
		{Path: "index.html", Content: "<html></html>"},
		{Path: "src/App.tsx", Content: "export default 1"},
		{Path: "node_modules/react/index.js", Content: "module.exports = {}"},
		{Path: "dist/assets/app.js", Content: "built"},
	})
	require.NoError(t, err)

	destination := filepath.Join(t.TempDir(), "out", "project.zip")
	count, err := sandbox.ExportZip(root, destination, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	reader, err := zip.OpenReader(destination)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"index.html", "src/App.tsx"}, names)
}

func TestExportZip_DestinationInsideRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	sandbox := NewProjectSandbox(t.TempDir(), nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	count, err := sandbox.ExportZip(root, filepath.Join(root, "export.zip"), []string{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStatsAndClean(t *testing.T) {
	root := filepath.Join(t.TempDir(), "sandbox")
	sandbox := NewProjectSandbox(root, nil)

	stats, err := sandbox.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Projects)

	dir, err := sandbox.CreateProject("one")
	require.NoError(t, err)
	_, err = sandbox.CreateProject("two")
	require.NoError(t, err)
	_, err = sandbox.Materialize(dir, []parser_models.GeneratedFile{{Path: "a.txt", Content: "12345"}})
	require.NoError(t, err)

	stats, err = sandbox.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Projects)
	assert.Equal(t, int64(5), stats.TotalSize)

	require.NoError(t, sandbox.Clean())
	assert.NoDirExists(t, root)
}
