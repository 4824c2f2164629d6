package project_sandbox

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExportExcludes keeps installed and built output out of exports.
var DefaultExportExcludes = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"**/.DS_Store",
	"**/.lovable-*",
}

// ExportZip archives root into destination, skipping paths that match any
// of the doublestar excludes. It returns the number of files archived.
func (sandbox *ProjectSandbox) ExportZip(root string, destination string, excludes []string) (int, error) {
	if excludes == nil {
		excludes = DefaultExportExcludes
	}

	absDestination, err := filepath.Abs(destination)
	if err != nil {
		return 0, &IOError{Op: "resolve", Path: destination, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(absDestination), 0o755); err != nil {
		return 0, &IOError{Op: "create directory", Path: filepath.Dir(absDestination), Err: err}
	}

	out, err := os.Create(absDestination)
	if err != nil {
		return 0, &IOError{Op: "create archive", Path: absDestination, Err: err}
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	count := 0

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, d.IsDir(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if absPath, _ := filepath.Abs(path); absPath == absDestination {
			return nil
		}

		if err := addToArchive(archive, path, rel, d); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		archive.Close()
		return count, &IOError{Op: "export", Path: root, Err: walkErr}
	}

	if err := archive.Close(); err != nil {
		return count, &IOError{Op: "finalize archive", Path: absDestination, Err: err}
	}

	sandbox.logger.Info("exported project", sandbox.logger.Args("root", root, "archive", absDestination, "files", count))
	return count, nil
}

func excluded(rel string, isDir bool, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if isDir {
			if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
				return true
			}
		}
	}
	return false
}

func addToArchive(archive *zip.Writer, path string, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}
