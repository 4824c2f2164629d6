package project_sandbox

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/openlovable/lovable/project_sandbox/contracts"
	"github.com/openlovable/lovable/project_sandbox/models"
	"github.com/pterm/pterm"
	"github.com/zeebo/xxh3"
)

// ProjectSandbox owns one directory under which every ephemeral project
// lives. It writes files but never keeps project state.
type ProjectSandbox struct {
	Root   string
	logger *pterm.Logger
}

func NewProjectSandbox(root string, logger *pterm.Logger) contracts.IProjectSandbox {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &ProjectSandbox{Root: root, logger: logger}
}

// Slugify lower-cases name and turns spaces and separators into hyphens.
func Slugify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "project"
	}
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-")
	return strings.ToLower(replacer.Replace(name))
}

// CreateProject makes a fresh directory named <slug>-<8 random hex chars>.
func (sandbox *ProjectSandbox) CreateProject(name string) (string, error) {
	if err := os.MkdirAll(sandbox.Root, 0o755); err != nil {
		return "", &IOError{Op: "create sandbox root", Path: sandbox.Root, Err: err}
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	dir := filepath.Join(sandbox.Root, fmt.Sprintf("%s-%s", Slugify(name), suffix))

	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", &IOError{Op: "create project", Path: dir, Err: err}
	}

	sandbox.logger.Debug("created project directory", sandbox.logger.Args("path", dir))
	return dir, nil
}

// Materialize writes every file below root. A failing file does not stop
// the others; failures are listed in the report and returned as a WriteError.
func (sandbox *ProjectSandbox) Materialize(root string, files []parser_models.GeneratedFile) (*models.WriteReport, error) {
	report := &models.WriteReport{}

	for _, file := range files {
		unchanged, err := writeFile(root, file)
		switch {
		case err != nil:
			sandbox.logger.Warn("failed to write file", sandbox.logger.Args("path", file.Path, "error", err))
			report.Failed = append(report.Failed, models.FileFailure{Path: file.Path, Err: err})
		case unchanged:
			report.Unchanged = append(report.Unchanged, file.Path)
		default:
			report.Written = append(report.Written, file.Path)
		}
	}

	if len(report.Failed) > 0 {
		return report, &WriteError{Failures: report.Failed}
	}
	return report, nil
}

func writeFile(root string, file parser_models.GeneratedFile) (bool, error) {
	target, err := resolve(root, file.Path)
	if err != nil {
		return false, err
	}

	if existing, err := os.ReadFile(target); err == nil {
		if len(existing) == len(file.Content) && xxh3.Hash(existing) == xxh3.HashString(file.Content) && bytes.Equal(existing, []byte(file.Content)) {
			return true, nil
		}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &IOError{Op: "create directory", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".lovable-*")
	if err != nil {
		return false, &IOError{Op: "create temp file", Path: dir, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(file.Content); err != nil {
		tmp.Close()
		return false, &IOError{Op: "write", Path: target, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return false, &IOError{Op: "chmod", Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return false, &IOError{Op: "close", Path: target, Err: err}
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return false, &IOError{Op: "rename", Path: target, Err: err}
	}
	return false, nil
}

// resolve joins a relative path onto root and refuses anything that leaves it.
func resolve(root string, relative string) (string, error) {
	if strings.TrimSpace(relative) == "" {
		return "", &IOError{Op: "resolve", Path: relative, Err: fs.ErrInvalid}
	}
	cleaned := filepath.Clean(filepath.FromSlash(relative))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", &IOError{Op: "resolve", Path: relative, Err: ErrPathOutsideRoot}
	}
	return filepath.Join(root, cleaned), nil
}

// Stats counts the project directories and their total size.
func (sandbox *ProjectSandbox) Stats() (*models.SandboxStats, error) {
	stats := &models.SandboxStats{Root: sandbox.Root}

	entries, err := os.ReadDir(sandbox.Root)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read sandbox root", Path: sandbox.Root, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			stats.Projects++
		}
	}

	err = filepath.WalkDir(sandbox.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				stats.TotalSize += info.Size()
			}
		}
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "walk sandbox root", Path: sandbox.Root, Err: err}
	}
	return stats, nil
}

// Clean removes every project under the sandbox root.
func (sandbox *ProjectSandbox) Clean() error {
	if err := os.RemoveAll(sandbox.Root); err != nil {
		return &IOError{Op: "remove sandbox root", Path: sandbox.Root, Err: err}
	}
	return nil
}
