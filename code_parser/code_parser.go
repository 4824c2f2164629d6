package code_parser

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/openlovable/lovable/code_parser/contracts"
	"github.com/openlovable/lovable/code_parser/models"
)

// ErrEmptyInput is the only error Parse returns.
var ErrEmptyInput = errors.New("generation output is empty")

var (
	fileBlockPattern    = regexp.MustCompile(`(?s)<file\s+path="([^"]+)"\s*>(.*?)</file>`)
	packagePattern      = regexp.MustCompile(`(?s)<package>(.*?)</package>`)
	packagesPattern     = regexp.MustCompile(`(?s)<packages>(.*?)</packages>`)
	commandPattern      = regexp.MustCompile(`(?s)<command>(.*?)</command>`)
	explanationPattern  = regexp.MustCompile(`(?s)<explanation>(.*?)</explanation>`)
	structurePattern    = regexp.MustCompile(`(?s)<structure>(.*?)</structure>`)
	packageListSplitter = regexp.MustCompile(`[\n,]`)
)

// CodeParser extracts the tagged blocks of a generation. Tags that are
// malformed or never closed simply do not match.
type CodeParser struct{}

func NewCodeParser() contracts.ICodeParser {
	return &CodeParser{}
}

func (parser *CodeParser) Parse(raw string) (*models.GeneratedArtifact, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	artifact := &models.GeneratedArtifact{
		Files:    []models.GeneratedFile{},
		Packages: []string{},
		Commands: []string{},
	}

	for _, match := range fileBlockPattern.FindAllStringSubmatch(raw, -1) {
		artifact.Files = append(artifact.Files, models.GeneratedFile{
			Path:    strings.TrimSpace(match[1]),
			Content: match[2],
		})
	}

	// File bodies are opaque: a README that mentions <package> must not add dependencies.
	rest := fileBlockPattern.ReplaceAllString(raw, "")

	packages := make(map[string]struct{})
	for _, match := range packagePattern.FindAllStringSubmatch(rest, -1) {
		if name := strings.TrimSpace(match[1]); name != "" {
			packages[name] = struct{}{}
		}
	}
	for _, match := range packagesPattern.FindAllStringSubmatch(rest, -1) {
		for _, name := range packageListSplitter.Split(match[1], -1) {
			if name = strings.TrimSpace(name); name != "" {
				packages[name] = struct{}{}
			}
		}
	}
	for name := range packages {
		artifact.Packages = append(artifact.Packages, name)
	}
	sort.Strings(artifact.Packages)

	for _, match := range commandPattern.FindAllStringSubmatch(rest, -1) {
		if command := strings.TrimSpace(match[1]); command != "" {
			artifact.Commands = append(artifact.Commands, command)
		}
	}

	artifact.Explanation = firstBlock(explanationPattern, rest)
	artifact.Structure = firstBlock(structurePattern, rest)

	return artifact, nil
}

func firstBlock(pattern *regexp.Regexp, text string) *string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	value := strings.TrimSpace(match[1])
	return &value
}
