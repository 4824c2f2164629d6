package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/openlovable/lovable/code_analyzer"
	analyzer_contracts "github.com/openlovable/lovable/code_analyzer/contracts"
	"github.com/openlovable/lovable/config"
	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/dev_server"
	server_contracts "github.com/openlovable/lovable/dev_server/contracts"
	"github.com/openlovable/lovable/pipeline"
	pipeline_contracts "github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/process_host"
	host_contracts "github.com/openlovable/lovable/process_host/contracts"
	"github.com/openlovable/lovable/project_sandbox"
	sandbox_contracts "github.com/openlovable/lovable/project_sandbox/contracts"
	"github.com/openlovable/lovable/providers"
	provider_contracts "github.com/openlovable/lovable/providers/contracts"
	"github.com/openlovable/lovable/token_management"
	token_contracts "github.com/openlovable/lovable/token_management/contracts"
	"github.com/openlovable/lovable/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies holds everything a subcommand needs. The pipeline is not
// part of it: building one creates a project on disk, which only the
// generating commands want.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *pterm.Logger
	ProcessHost     host_contracts.IProcessHost
	Sandbox         sandbox_contracts.IProjectSandbox
	Supervisor      server_contracts.IDevServerSupervisor
	Doctor          server_contracts.IDoctor
	TokenManagement token_contracts.ITokenManagement
	Analyzer        analyzer_contracts.ICodeAnalyzer
}

var rootCmd = &cobra.Command{
	Use:   "lovable",
	Short: "Generate Vite React TypeScript apps from a prompt and preview them live.",
	Long: `Lovable sends your request to an AI model, writes the generated files into a sandboxed project,
installs the packages they need and keeps a Vite dev server running so you can preview the result.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			rootDependencies := handleRootCommand(cmd)
			if rootDependencies == nil {
				return
			}
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("lovable version %s", rootDependencies.Config.Version)))
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads the configuration and builds the shared
// components. It prints the error and returns nil when that fails.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	logger := utils.NewLogger(cfg.LogLevel, os.Stderr)
	if cfg.ConfigFile != "" {
		logger.Debug("loaded configuration", logger.Args("file", cfg.ConfigFile))
	}

	host := process_host.NewProcessHost(cfg.DevServer.ExtraPath, logger)

	return &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger,
		ProcessHost:     host,
		Sandbox:         project_sandbox.NewProjectSandbox(cfg.Sandbox.Root, logger),
		Supervisor:      dev_server.NewSupervisor(host, cfg.SupervisorConfig(), logger),
		Doctor:          dev_server.NewDoctor(host, cfg.DevServer.PackageManager, cfg.DevServer.Node),
		TokenManagement: token_management.NewTokenManager(),
		Analyzer:        code_analyzer.NewCodeAnalyzer(),
	}
}

// newPipeline builds the generation pipeline and its starter project.
func newPipeline(rootDependencies *RootDependencies) (pipeline_contracts.IPipeline, error) {
	tokenManagement := rootDependencies.TokenManagement

	return pipeline.NewPipeline(pipeline.Dependencies{
		Sandbox:    rootDependencies.Sandbox,
		Supervisor: rootDependencies.Supervisor,
		Doctor:     rootDependencies.Doctor,
		Analyzer:   rootDependencies.Analyzer,
		ProviderFactory: func(providerConfig providers.AIProviderConfig) (provider_contracts.IChatAIProvider, error) {
			return providers.ProviderFactory(&providerConfig, tokenManagement, nil)
		},
	}, pipeline.Config{
		ProjectName:    rootDependencies.Config.Sandbox.ProjectName,
		ProviderConfig: *rootDependencies.Config.AIProviderConfig,
	}, rootDependencies.Logger)
}

func newSpinner() *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true)
}
