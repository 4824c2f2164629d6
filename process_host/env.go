package process_host

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultToolchainPaths are the usual install locations of node and npm.
// They are prepended to PATH so a toolchain is found even when the parent
// process was started with a minimal environment.
var DefaultToolchainPaths = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/usr/bin",
	"/bin",
	"/usr/sbin",
	"/sbin",
}

// BuildEnvironment merges the inherited environment, the toolchain PATH
// prefix and the caller overrides. Overrides are applied last, so an
// overridden PATH is taken verbatim.
func BuildEnvironment(base []string, extraPaths []string, overrides map[string]string) []string {
	values := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}

	prefix := append(append([]string{}, extraPaths...), DefaultToolchainPaths...)
	values["PATH"] = joinPath(prefix, filepath.SplitList(values["PATH"]))

	for key, value := range overrides {
		values[key] = value
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+values[key])
	}
	return env
}

// lookupEnv returns the value of key in an environment slice.
func lookupEnv(env []string, key string) string {
	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok && k == key {
			return v
		}
	}
	return ""
}

func joinPath(groups ...[]string) string {
	seen := make(map[string]bool)
	var dirs []string
	for _, group := range groups {
		for _, dir := range group {
			if dir == "" || seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return strings.Join(dirs, string(os.PathListSeparator))
}
