package pipeline

import (
	"context"
	"fmt"
	"strings"

	history_models "github.com/openlovable/lovable/chat_history/models"
	analyzer_models "github.com/openlovable/lovable/code_analyzer/models"
	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/openlovable/lovable/dependency_sniffer"
	"github.com/openlovable/lovable/dev_server"
	"github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/openlovable/lovable/project"
	sandbox_models "github.com/openlovable/lovable/project_sandbox/models"
	"github.com/openlovable/lovable/providers"
	provider_models "github.com/openlovable/lovable/providers/models"
)

// Submit runs one turn to completion. The returned error is only about
// admission; stage failures are reported in the result and the log book.
func (p *Pipeline) Submit(ctx context.Context, text string, opts ...contracts.TurnOption) (*models.TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyRequest
	}
	if err := p.reserve(); err != nil {
		return nil, err
	}
	return p.runTurn(ctx, text, turnOptions(opts)), nil
}

// SubmitAsync takes the turn slot before returning, then runs the turn in
// the background. The turn is detached from ctx cancellation.
func (p *Pipeline) SubmitAsync(ctx context.Context, text string, opts ...contracts.TurnOption) (<-chan *models.TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyRequest
	}
	if err := p.reserve(); err != nil {
		return nil, err
	}

	results := make(chan *models.TurnResult, 1)
	turnCtx := context.WithoutCancel(ctx)
	options := turnOptions(opts)
	go func() {
		defer close(results)
		results <- p.runTurn(turnCtx, text, options)
	}()
	return results, nil
}

func turnOptions(opts []contracts.TurnOption) *contracts.TurnOptions {
	options := &contracts.TurnOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func (p *Pipeline) reserve() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return ErrTurnInProgress
	}
	p.busy = true
	return nil
}

func (p *Pipeline) setState(state models.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

func (p *Pipeline) runTurn(ctx context.Context, text string, options *contracts.TurnOptions) *models.TurnResult {
	defer func() {
		p.mu.Lock()
		p.state = models.StateIdle
		p.busy = false
		p.mu.Unlock()
	}()

	p.deps.History.AddToHistory(history_models.RoleUser, text)

	p.mu.Lock()
	messages := p.buildMessagesLocked()
	provider, providerErr, providerName := p.provider, p.providerErr, p.providerConfig.Provider
	root := p.project.RootPath
	p.state = models.StateStreaming
	p.mu.Unlock()

	p.logger.Info("turn started", p.logger.Args("provider", providerName, "messages", len(messages)))

	var raw string
	err := providerErr
	if err == nil {
		raw, err = providers.CollectStream(ctx, providerName, provider.ChatCompletionRequest(ctx, messages), options.OnChunk)
	} else {
		err = &provider_models.ProviderError{Provider: providerName, Err: err}
	}
	if err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("AI error: %v", err))
		p.logger.Error("provider failed", p.logger.Args("provider", providerName, "error", err))
		p.deps.History.AddToHistory(history_models.RoleAssistant, providerFailureMessage)
		return &models.TurnResult{Outcome: models.OutcomeProviderFailed, AssistantMessage: providerFailureMessage, Err: err}
	}

	p.setState(models.StateParsing)
	artifact, err := p.deps.Parser.Parse(raw)
	if err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Parse error: %v", err))
		p.deps.History.AddToHistory(history_models.RoleAssistant, parseFailureMessage)
		return &models.TurnResult{Outcome: models.OutcomeParseFailed, AssistantMessage: parseFailureMessage, Err: err}
	}

	p.mu.Lock()
	p.lastArtifact = artifact
	p.state = models.StateWriting
	p.mu.Unlock()

	result := &models.TurnResult{Artifact: artifact}
	if root == "" {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Write error: %v", ErrNoProject))
		p.logger.Error("turn has no project directory")
		result.Outcome = models.OutcomeWriteFailed
		result.Err = ErrNoProject
		return result
	}
	result.Report = p.writeArtifact(root, artifact.Files)

	p.setState(models.StateResolvingDependencies)
	result.Packages = resolvePackages(artifact, result.Report.Applied())
	p.logs.Append(models.SourcePipeline, fmt.Sprintf("Installing packages: %s", strings.Join(result.Packages, ", ")))

	diagnosis := p.deps.Doctor.Check(ctx)
	if diagnosis == nil || !diagnosis.OK {
		message := "toolchain check failed"
		if diagnosis != nil {
			message = diagnosis.Message
		}
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Node Doctor: %s", message))
		result.Outcome = models.OutcomePreflightFailed
		result.Err = fmt.Errorf("%w: %s", dev_server.ErrToolchainUnavailable, message)
		return result
	}

	p.setState(models.StateStartingServer)
	lines, err := p.deps.Supervisor.Start(ctx, root, result.Packages)
	if err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Dev server error: %v", err))
		p.logger.Error("dev server failed to start", p.logger.Args("root", root, "error", err))
		// Start stops the previous server before anything else.
		p.mu.Lock()
		p.previewURL = ""
		p.mu.Unlock()
		result.Outcome = models.OutcomeServerFailed
		result.Err = err
		return result
	}

	result.PreviewURL = p.deps.Supervisor.PreviewURL()
	p.mu.Lock()
	p.previewURL = result.PreviewURL
	p.mu.Unlock()
	p.logs.Append(models.SourcePipeline, fmt.Sprintf("Dev server starting at %s", result.PreviewURL))
	go p.pump(lines)

	result.AssistantMessage = defaultSuccessMessage
	if artifact.Explanation != nil && *artifact.Explanation != "" {
		result.AssistantMessage = *artifact.Explanation
	}
	p.deps.History.AddToHistory(history_models.RoleAssistant, result.AssistantMessage)
	result.Outcome = models.OutcomeCompleted
	return result
}

// buildMessagesLocked assembles the request: one system prompt carrying the
// project name and structure, then the conversation without its seed.
func (p *Pipeline) buildMessagesLocked() []provider_models.Message {
	var files []analyzer_models.FileData
	for _, file := range p.project.GeneratedFiles() {
		files = append(files, analyzer_models.FileData{RelativePath: file.Path, Code: file.Content})
	}

	messages := []provider_models.Message{{
		Role:    string(history_models.RoleSystem),
		Content: p.deps.Analyzer.GeneratePrompt(p.config.SystemPrompt, p.project.Name, files),
	}}
	for _, message := range p.deps.History.GetNonSystemHistory() {
		messages = append(messages, provider_models.Message{Role: string(message.Role), Content: message.Content})
	}
	return messages
}

// writeArtifact materializes the files and mirrors the ones that reached
// disk into the tree. Failures are logged and the turn goes on.
func (p *Pipeline) writeArtifact(root string, files []parser_models.GeneratedFile) *sandbox_models.WriteReport {
	report, err := p.deps.Sandbox.Materialize(root, files)
	if report == nil {
		report = &sandbox_models.WriteReport{}
	}
	for _, failure := range report.Failed {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Write error for %s: %v", failure.Path, failure.Err))
	}
	if err != nil && len(report.Failed) == 0 {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Write error: %v", err))
	}

	applied := make(map[string]bool)
	for _, path := range report.Applied() {
		applied[path] = true
	}

	p.mu.Lock()
	for _, file := range files {
		if applied[file.Path] {
			p.project.Upsert(file.Path, file.Content)
		}
	}
	if p.selectedFileID == "" || p.project.FindByID(p.selectedFileID) == nil {
		p.selectedFileID = p.project.DefaultSelectedFileID()
	}
	p.mu.Unlock()

	p.logs.Append(models.SourcePipeline, fmt.Sprintf("Wrote %d files.", len(report.Written)))
	return report
}

// resolvePackages merges declared and imported packages, adding the React
// baseline when a component file reached disk.
func resolvePackages(artifact *parser_models.GeneratedArtifact, applied []string) []string {
	paths := make([]string, 0, len(applied))
	for _, path := range applied {
		paths = append(paths, project.CleanPath(path))
	}

	sets := [][]string{artifact.Packages, dependency_sniffer.Detect(artifact.Files)}
	if dependency_sniffer.NeedsBaseline(paths) {
		sets = append(sets, dependency_sniffer.Baseline())
	}
	return dependency_sniffer.Merge(sets...)
}

// pump copies dev server output into the log book until the child's
// streams close.
func (p *Pipeline) pump(lines <-chan string) {
	for line := range lines {
		p.logs.Append(models.SourceDevServer, line)
	}
}
