package contracts

import "github.com/openlovable/lovable/code_analyzer/models"

type ICodeAnalyzer interface {
	ProcessFile(relativePath string, sourceCode []byte) ([]string, error)
	Summarize(files []models.FileData) []string
	GeneratePrompt(template string, projectName string, files []models.FileData) string
	GetProjectFiles(rootDir string) (*models.FullContextData, error)
	CacheStats() models.CacheStats
	ClearCache()
}
