package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage maps a file path to the language name used by the
// tree-sitter analyzer and the chroma highlighter.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".json":
		return "json"
	case ".css":
		return "css"
	case ".html", ".htm":
		return "html"
	case ".md":
		return "markdown"
	case ".yml", ".yaml":
		return "yaml"
	default:
		return ""
	}
}
