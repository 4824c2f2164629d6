package dev_server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type manifestScripts struct {
	Dev     string `json:"dev"`
	Build   string `json:"build"`
	Preview string `json:"preview"`
}

type manifest struct {
	Name            string            `json:"name"`
	Private         bool              `json:"private"`
	Version         string            `json:"version"`
	Type            string            `json:"type"`
	Scripts         manifestScripts   `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func defaultManifest() manifest {
	return manifest{
		Name:    "lovable-app",
		Private: true,
		Version: "0.0.1",
		Type:    "module",
		Scripts: manifestScripts{
			Dev:     "vite",
			Build:   "vite build",
			Preview: "vite preview",
		},
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{"vite": "^5.4.0"},
	}
}

// EnsureManifest writes a minimal package.json into root unless one exists.
func EnsureManifest(root string) (bool, error) {
	path := filepath.Join(root, "package.json")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("error checking manifest: %w", err)
	}

	data, err := json.MarshalIndent(defaultManifest(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("error encoding manifest: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("error writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("error writing manifest: %w", err)
	}
	return true, nil
}
