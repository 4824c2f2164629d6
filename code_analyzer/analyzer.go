package code_analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/openlovable/lovable/code_analyzer/contracts"
	"github.com/openlovable/lovable/code_analyzer/models"
	"github.com/openlovable/lovable/embed_data"
	"github.com/openlovable/lovable/utils"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Files above this size are left out of summaries and project scans.
const maxFileSize = 100 * 1024

type compiledQuery struct {
	tag   string
	query *sitter.Query
}

type grammar struct {
	language *sitter.Language
	source   []byte

	once    sync.Once
	queries []compiledQuery
	err     error
}

// CodeAnalyzer summarizes JavaScript and TypeScript sources with tree-sitter
// so the model sees the project's shape without every file body.
type CodeAnalyzer struct {
	cache    *summaryCache
	grammars map[string]*grammar
}

// NewCodeAnalyzer initializes a new CodeAnalyzer.
func NewCodeAnalyzer() contracts.ICodeAnalyzer {
	return &CodeAnalyzer{
		cache: newSummaryCache(defaultCacheEntries),
		grammars: map[string]*grammar{
			"javascript": {language: javascript.GetLanguage(), source: embed_data.JavascriptQuery},
			"typescript": {language: typescript.GetLanguage(), source: embed_data.TypescriptQuery},
			"tsx":        {language: tsx.GetLanguage(), source: embed_data.TypescriptQuery},
		},
	}
}

// compile parses the embedded query table once per grammar. Tags are
// sorted so summaries come out in a stable order.
func (g *grammar) compile() ([]compiledQuery, error) {
	g.once.Do(func() {
		queries := make(map[string]string)
		if err := json.Unmarshal(g.source, &queries); err != nil {
			g.err = fmt.Errorf("failed to parse query table: %w", err)
			return
		}

		tags := make([]string, 0, len(queries))
		for tag := range queries {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		for _, tag := range tags {
			query, err := sitter.NewQuery([]byte(queries[tag]), g.language)
			if err != nil {
				g.err = fmt.Errorf("failed to compile %s query: %w", tag, err)
				return
			}
			g.queries = append(g.queries, compiledQuery{tag: tag, query: query})
		}
	})
	return g.queries, g.err
}

// ProcessFile returns the tagged declarations of one source file. Files in
// other languages are represented by their path and first line.
func (analyzer *CodeAnalyzer) ProcessFile(relativePath string, sourceCode []byte) ([]string, error) {
	g, ok := analyzer.grammars[utils.GetSupportedLanguage(relativePath)]
	if !ok {
		firstLine, _, _ := strings.Cut(string(sourceCode), "\n")
		return []string{relativePath, strings.TrimSpace(firstLine)}, nil
	}

	queries, err := g.compile()
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relativePath, err)
	}
	defer tree.Close()

	var elements []string
	for _, compiled := range queries {
		cursor := sitter.NewQueryCursor()
		cursor.Exec(compiled.query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", compiled.tag, capture.Node.Content(sourceCode)))
			}
		}
		cursor.Close()
	}

	return elements, nil
}

// summarizeFile consults the cache before running tree-sitter. A parse
// failure degrades to the plain-file form instead of failing the summary.
func (analyzer *CodeAnalyzer) summarizeFile(relativePath string, content []byte) []string {
	key := cacheKey(relativePath, content)
	if parts, found := analyzer.cache.Get(key); found {
		return parts
	}

	parts, err := analyzer.ProcessFile(relativePath, content)
	if err != nil {
		firstLine, _, _ := strings.Cut(string(content), "\n")
		parts = []string{relativePath, strings.TrimSpace(firstLine)}
	}
	analyzer.cache.Set(key, parts)
	return parts
}

// Summarize renders one block per file, sorted by path. Ignored and
// oversized files are skipped.
func (analyzer *CodeAnalyzer) Summarize(files []models.FileData) []string {
	sorted := make([]models.FileData, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelativePath < sorted[j].RelativePath })

	var rawCodes []string
	for _, file := range sorted {
		if utils.IsDefaultIgnored(file.RelativePath) || len(file.Code) > maxFileSize {
			continue
		}
		parts := analyzer.summarizeFile(file.RelativePath, []byte(file.Code))
		rawCodes = append(rawCodes, fmt.Sprintf("**File: %s**\n\n%s", file.RelativePath, strings.Join(parts, "\n")))
	}
	return rawCodes
}

// GeneratePrompt builds the system prompt for a turn: the template, the
// project name, and a summary of the files generated so far.
func (analyzer *CodeAnalyzer) GeneratePrompt(template string, projectName string, files []models.FileData) string {
	prompt := strings.TrimSpace(template)
	if projectName != "" {
		prompt += fmt.Sprintf("\n\n______\n## Project\n\nThe project is named %q.", projectName)
	}

	summary := analyzer.Summarize(files)
	if len(summary) > 0 {
		prompt += fmt.Sprintf("\n\n______\n## Here is the summary of context of project\n\n%s", strings.Join(summary, "\n---------\n\n"))
	}

	return prompt
}

// GetProjectFiles loads every source file below rootDir, honouring the
// default ignore list and the project's ignore file.
func (analyzer *CodeAnalyzer) GetProjectFiles(rootDir string) (*models.FullContextData, error) {
	var result models.FullContextData

	ignorePatterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)
		if relativePath == "." {
			return nil
		}

		if utils.IsDefaultIgnored(relativePath) || utils.IsIgnored(relativePath, ignorePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %s, error: %w", relativePath, err)
		}
		if fileInfo.Size() > maxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
		}

		codeParts := analyzer.summarizeFile(relativePath, content)
		result.FileData = append(result.FileData, models.FileData{RelativePath: relativePath, Code: string(content), TreeSitterCode: strings.Join(codeParts, "\n")})
		result.RawCodes = append(result.RawCodes, fmt.Sprintf("**File: %s**\n\n%s", relativePath, strings.Join(codeParts, "\n")))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (analyzer *CodeAnalyzer) CacheStats() models.CacheStats {
	return analyzer.cache.Stats()
}

func (analyzer *CodeAnalyzer) ClearCache() {
	analyzer.cache.Clear()
}
