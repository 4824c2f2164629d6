package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName holds extra patterns, one per line, for files that must not
// be loaded from an existing project directory.
const IgnoreFileName = ".lovable-ignore"

type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

var (
	defaultIgnoredNames = map[string]bool{
		"lovable-config.yml": true,
		".git":               true,
		".idea":              true,
		".vscode":            true,
		".vite":              true,
		".cache":             true,
		".ds_store":          true,
		"dist":               true,
		"node_modules":       true,
		"package-lock.json":  true,
	}
	defaultIgnoredPrefixes = []string{".lovable-"}
	defaultIgnoredSuffixes = []string{
		".log", ".zip", ".jpg", ".jpeg", ".png", ".gif", ".ico", ".webp",
		".mp3", ".mp4", ".woff", ".woff2",
	}
)

// GetIgnorePatterns reads the ignore file in root. A missing file yields no patterns.
// Results are cached until the file's modification time changes.
func GetIgnorePatterns(root string) ([]string, error) {
	ignorePath := filepath.Join(root, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.patterns, nil
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{patterns: patterns, modTime: fileInfo.ModTime()}
	cacheMutex.Unlock()

	return patterns, nil
}

// IsDefaultIgnored reports whether any segment of a relative path is a
// dependency folder, build output, binary asset or tool file.
func IsDefaultIgnored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		part = strings.ToLower(part)
		if part == "" {
			continue
		}
		if defaultIgnoredNames[part] {
			return true
		}
		for _, prefix := range defaultIgnoredPrefixes {
			if strings.HasPrefix(part, prefix) {
				return true
			}
		}
		for _, suffix := range defaultIgnoredSuffixes {
			if strings.HasSuffix(part, suffix) {
				return true
			}
		}
	}
	return false
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks a slash-separated relative path against glob patterns.
// A pattern ending in "/" ignores everything below that directory.
func IsIgnored(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			if path == dir || strings.HasPrefix(path, pattern) {
				return true
			}
			continue
		}
		if match, _ := doublestar.Match(pattern, path); match {
			return true
		}
	}
	return false
}

// ClearIgnoreCache forgets every cached ignore file.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
