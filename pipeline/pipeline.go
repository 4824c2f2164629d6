package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/openlovable/lovable/chat_history"
	history_contracts "github.com/openlovable/lovable/chat_history/contracts"
	"github.com/openlovable/lovable/code_analyzer"
	analyzer_contracts "github.com/openlovable/lovable/code_analyzer/contracts"
	"github.com/openlovable/lovable/code_parser"
	parser_contracts "github.com/openlovable/lovable/code_parser/contracts"
	parser_models "github.com/openlovable/lovable/code_parser/models"
	server_contracts "github.com/openlovable/lovable/dev_server/contracts"
	"github.com/openlovable/lovable/embed_data"
	"github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/openlovable/lovable/project"
	sandbox_contracts "github.com/openlovable/lovable/project_sandbox/contracts"
	"github.com/openlovable/lovable/providers"
	provider_contracts "github.com/openlovable/lovable/providers/contracts"
	"github.com/pterm/pterm"
)

const (
	DefaultProjectName = "lovable-react-app"
	seedSystemMessage  = "You are Lovable. Generate Vite React TypeScript apps."

	providerFailureMessage = "Sorry, I hit an error talking to the model."
	parseFailureMessage    = "I couldn't parse the generation output."
	defaultSuccessMessage  = "Applied files and started the dev server."
)

// ProviderFactory builds the chat provider for a configuration.
type ProviderFactory func(config providers.AIProviderConfig) (provider_contracts.IChatAIProvider, error)

// Dependencies are the collaborators of a pipeline. Sandbox, Supervisor and
// Doctor are required; the rest fall back to the default implementations.
type Dependencies struct {
	Sandbox         sandbox_contracts.IProjectSandbox
	Supervisor      server_contracts.IDevServerSupervisor
	Doctor          server_contracts.IDoctor
	Parser          parser_contracts.ICodeParser
	Analyzer        analyzer_contracts.ICodeAnalyzer
	History         history_contracts.IChatHistory
	LogBook         contracts.ILogBook
	ProviderFactory ProviderFactory
}

type Config struct {
	ProjectName    string
	SystemPrompt   string
	ProviderConfig providers.AIProviderConfig
}

// Pipeline runs generation turns against one live project. All shared
// state sits behind mu; only one turn may hold the busy slot.
type Pipeline struct {
	mu sync.Mutex

	deps   Dependencies
	config Config
	logs   contracts.ILogBook
	logger *pterm.Logger

	provider       provider_contracts.IChatAIProvider
	providerConfig providers.AIProviderConfig
	providerErr    error

	state          models.State
	busy           bool
	project        *project.Project
	selectedFileID string
	previewURL     string
	lastArtifact   *parser_models.GeneratedArtifact
}

// NewPipeline wires the collaborators and creates the starter project, the
// way a fresh session opens with something to preview.
func NewPipeline(deps Dependencies, config Config, logger *pterm.Logger) (contracts.IPipeline, error) {
	if deps.Sandbox == nil || deps.Supervisor == nil || deps.Doctor == nil {
		return nil, fmt.Errorf("%w: sandbox, supervisor and doctor are required", ErrMissingDependency)
	}
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	if deps.Parser == nil {
		deps.Parser = code_parser.NewCodeParser()
	}
	if deps.Analyzer == nil {
		deps.Analyzer = code_analyzer.NewCodeAnalyzer()
	}
	if deps.History == nil {
		deps.History = chat_history.NewChatHistory(seedSystemMessage)
	}
	if deps.LogBook == nil {
		deps.LogBook = NewLogBook(defaultMaxLogEntries)
	}
	if deps.ProviderFactory == nil {
		deps.ProviderFactory = func(config providers.AIProviderConfig) (provider_contracts.IChatAIProvider, error) {
			return providers.ProviderFactory(&config, nil, nil)
		}
	}
	if config.ProjectName == "" {
		config.ProjectName = DefaultProjectName
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = string(embed_data.SystemReactPrompt)
	}

	p := &Pipeline{
		deps:    deps,
		config:  config,
		logs:    deps.LogBook,
		logger:  logger,
		state:   models.StateIdle,
		project: project.Empty(),
	}
	p.rebuildProvider(config.ProviderConfig)
	if err := p.newProjectLocked(config.ProjectName); err != nil {
		return nil, fmt.Errorf("failed to create starter project: %w", err)
	}
	return p, nil
}

func (p *Pipeline) rebuildProvider(config providers.AIProviderConfig) {
	p.providerConfig = config.WithDefaults()
	p.provider, p.providerErr = p.deps.ProviderFactory(config)
	if p.providerErr != nil {
		p.logger.Warn("provider unavailable", p.logger.Args("provider", config.Provider, "error", p.providerErr))
	}
}

// UpdateProviderConfig rebuilds the provider after a settings change. A
// configuration that cannot be built leaves the previous provider in place.
func (p *Pipeline) UpdateProviderConfig(config providers.AIProviderConfig) error {
	provider, err := p.deps.ProviderFactory(config)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.provider = provider
	p.providerErr = nil
	p.providerConfig = config.WithDefaults()
	return nil
}

func (p *Pipeline) NewProject(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return ErrTurnInProgress
	}
	return p.newProjectLocked(name)
}

// newProjectLocked replaces the project wholesale: the dev server of the old
// one is stopped, the preview cleared, and the starter files written.
func (p *Pipeline) newProjectLocked(name string) error {
	if name == "" {
		name = DefaultProjectName
	}
	if err := p.deps.Supervisor.Stop(); err != nil {
		p.logger.Warn("failed to stop dev server", p.logger.Args("error", err))
	}
	p.previewURL = ""
	p.lastArtifact = nil

	root, err := p.deps.Sandbox.CreateProject(name)
	if err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Error creating project: %v", err))
		p.logger.Error("failed to create project", p.logger.Args("name", name, "error", err))
		return err
	}

	p.project = project.New(name, root, project.StarterFiles())
	p.selectedFileID = p.project.DefaultSelectedFileID()
	p.deps.Analyzer.ClearCache()
	p.logs.Reset(fmt.Sprintf("Created project at %s", root))
	p.logger.Info("project created", p.logger.Args("name", name, "root", root))

	if _, err := p.deps.Sandbox.Materialize(root, p.project.GeneratedFiles()); err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Error creating project: %v", err))
		return err
	}
	return nil
}

// OpenProject loads an existing project directory into the tree. Nothing is
// copied: later turns write into root directly.
func (p *Pipeline) OpenProject(root string) error {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	loaded, err := p.deps.Analyzer.GetProjectFiles(absolute)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return ErrTurnInProgress
	}
	if err := p.deps.Supervisor.Stop(); err != nil {
		p.logger.Warn("failed to stop dev server", p.logger.Args("error", err))
	}
	p.previewURL = ""
	p.lastArtifact = nil

	opened := project.New(filepath.Base(absolute), absolute, []*project.FileNode{})
	for _, file := range loaded.FileData {
		opened.Upsert(file.RelativePath, file.Code)
	}
	p.project = opened
	p.selectedFileID = opened.DefaultSelectedFileID()
	p.logs.Reset(fmt.Sprintf("Opened project at %s (%d files)", absolute, len(loaded.FileData)))
	return nil
}

func (p *Pipeline) SelectFile(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	node := p.project.FindByID(id)
	if node == nil || node.IsDirectory {
		return fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	p.selectedFileID = id
	return nil
}

// UpdateFileContent saves an editor change to the tree and to disk.
func (p *Pipeline) UpdateFileContent(filePath string, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	node := p.project.FindByPath(filePath)
	if node == nil || node.IsDirectory {
		return fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	p.project.UpdateFileContent(node.ID, content)

	if _, err := p.deps.Sandbox.Materialize(p.project.RootPath, []parser_models.GeneratedFile{{Path: node.Path, Content: content}}); err != nil {
		p.logs.Append(models.SourcePipeline, fmt.Sprintf("Write error for %s: %v", node.Path, err))
		return err
	}
	return nil
}

// StopServer waits for a start in flight before stopping; mu is not held
// meanwhile so snapshots keep answering.
func (p *Pipeline) StopServer() error {
	if err := p.deps.Supervisor.Stop(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.previewURL != "" {
		p.logs.Append(models.SourcePipeline, "Dev server stopped.")
	}
	p.previewURL = ""
	return nil
}

func (p *Pipeline) Snapshot() *models.Snapshot {
	running := p.deps.Supervisor.Running()

	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := &models.Snapshot{
		State:          p.state,
		Busy:           p.busy,
		Project:        p.project.Clone(),
		SelectedFileID: p.selectedFileID,
		Messages:       p.deps.History.GetHistory(),
		PreviewURL:     p.previewURL,
		ServerRunning:  running,
		Provider:       p.providerConfig.Provider,
		Model:          p.providerConfig.Model,
	}
	if p.lastArtifact != nil {
		snapshot.Commands = append([]string(nil), p.lastArtifact.Commands...)
	}
	return snapshot
}

func (p *Pipeline) LastArtifact() *parser_models.GeneratedArtifact {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastArtifact
}

func (p *Pipeline) Logs() contracts.ILogBook {
	return p.logs
}

// Shutdown stops the dev server and ends every log subscription.
func (p *Pipeline) Shutdown() {
	if err := p.deps.Supervisor.Stop(); err != nil {
		p.logger.Warn("failed to stop dev server", p.logger.Args("error", err))
	}
	p.logs.Close()
}
