package dependency_sniffer

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/openlovable/lovable/code_parser/models"
)

var importPattern = regexp.MustCompile(`(?m)^\s*import\s.*?from\s*['"]([^'"]+)['"]`)

var scriptExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// baselinePackages are installed whenever a UI component file is generated.
var baselinePackages = []string{
	"@types/react",
	"@types/react-dom",
	"react",
	"react-dom",
	"typescript",
	"vite",
}

// Detect returns the sorted external packages imported by the script files.
// Relative and absolute specifiers are local and skipped. The scan is
// textual: single-line `import ... from "x"` statements only.
func Detect(files []models.GeneratedFile) []string {
	found := make(map[string]struct{})
	for _, file := range files {
		if !scriptExtensions[strings.ToLower(filepath.Ext(file.Path))] {
			continue
		}
		for _, match := range importPattern.FindAllStringSubmatch(file.Content, -1) {
			module := match[1]
			if strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../") || strings.HasPrefix(module, "/") {
				continue
			}
			found[packageName(module)] = struct{}{}
		}
	}

	modules := make([]string, 0, len(found))
	for module := range found {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// packageName strips a subpath import down to the installable package,
// e.g. react-dom/client -> react-dom and @scope/pkg/x -> @scope/pkg.
func packageName(module string) string {
	parts := strings.Split(module, "/")
	if strings.HasPrefix(module, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// NeedsBaseline reports whether any path is a .tsx or .jsx component.
func NeedsBaseline(paths []string) bool {
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".tsx" || ext == ".jsx" {
			return true
		}
	}
	return false
}

func Baseline() []string {
	return append([]string(nil), baselinePackages...)
}

// Merge unions the given package sets into one sorted list.
func Merge(sets ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, set := range sets {
		for _, name := range set {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
	}
	sort.Strings(merged)
	return merged
}
