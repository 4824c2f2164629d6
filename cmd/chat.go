package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/openlovable/lovable/constants/lipgloss"
	pipeline_contracts "github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/project_sandbox"
	"github.com/openlovable/lovable/providers"
	"github.com/openlovable/lovable/utils"
	"github.com/spf13/cobra"
)

// chatCmd: lovable chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session that turns each request into a running app.",
	Long: `The 'chat' subcommand opens a session around one live project. Every request is sent to the model
together with the project's structure; the generated files are written, their packages installed and the
dev server restarted so the preview always shows the latest turn.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		openDir, _ := cmd.Flags().GetString("open")
		handleChatCommand(rootDependencies, openDir)
	},
}

func init() {
	chatCmd.Flags().String("open", "", "Open an existing project directory instead of creating a starter project.")
	rootCmd.AddCommand(chatCmd)
}

// chatSession carries what the slash commands act on.
type chatSession struct {
	ctx              context.Context
	rootDependencies *RootDependencies
	pipeline         pipeline_contracts.IPipeline
	executor         *utils.CommandExecutor
	reader           *bufio.Reader
}

func handleChatCommand(rootDependencies *RootDependencies, openDir string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinnerProject, _ := newSpinner().Start("Creating project...")
	p, err := newPipeline(rootDependencies)
	if spinnerProject != nil {
		_ = spinnerProject.Stop()
	}
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	defer p.Shutdown()

	go utils.GracefulShutdown(ctx, cancel, func() {
		p.Shutdown()
		rootDependencies.TokenManagement.ClearToken()
	})

	if openDir != "" {
		if err := p.OpenProject(openDir); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error opening project: %v", err)))
		}
	}

	session := &chatSession{
		ctx:              ctx,
		rootDependencies: rootDependencies,
		pipeline:         p,
		executor:         utils.NewCommandExecutor(rootDependencies.ProcessHost),
		reader:           bufio.NewReader(os.Stdin),
	}

	snapshot := p.Snapshot()
	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Project: %s\n%s\n\n/help  Help for chat subcommand", snapshot.Project.Name, snapshot.Project.RootPath)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		userInput, err := utils.InputPromptWithContext(ctx, session.reader)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		if userInput == "" {
			fmt.Print("\r")
			continue
		}

		if strings.HasPrefix(userInput, "/") {
			if exit := session.handleSlashCommand(userInput); exit {
				return
			}
			continue
		}

		providerConfig := p.Snapshot()
		result, err := runTurn(ctx, p, userInput, rootDependencies.Config.Theme, providerConfig.Provider)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}
		printTurnResult(result)
		rootDependencies.TokenManagement.DisplayTokens(providerConfig.Provider, providerConfig.Model)
	}
}

const chatHelp = `/new [name]  Replace the project with a fresh starter project
/stop  Stop the dev server
/logs  Show the project log
/tree  Show the project tree
/show <path>  Show a file with syntax highlighting
/commands  List the commands suggested by the last generation
/run <n>  Run suggested command n after confirmation
/export [file]  Export the project as a zip archive
/provider <name> [model]  Switch the AI provider
/token  Token information
/clear  Clear screen
/exit  Exit from lovable`

// handleSlashCommand runs one REPL command and reports whether to exit.
func (s *chatSession) handleSlashCommand(input string) bool {
	fields := strings.Fields(input)
	command, args := fields[0], fields[1:]

	switch command {
	case "/help":
		fmt.Println(lipgloss.BoxStyle.Render(chatHelp))
	case "/clear":
		fmt.Print("\033[2J\033[H")
	case "/exit":
		return true
	case "/new":
		s.newProject(strings.Join(args, " "))
	case "/stop":
		if err := s.pipeline.StopServer(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error stopping dev server: %v", err)))
		}
	case "/logs":
		for _, entry := range s.pipeline.Logs().Entries() {
			printLogEntry(entry)
		}
	case "/tree":
		fmt.Println(s.pipeline.Snapshot().Project.Render())
	case "/show":
		if len(args) != 1 {
			fmt.Println("Usage: /show <path>")
			break
		}
		s.showFile(args[0])
	case "/commands":
		s.listCommands()
	case "/run":
		if len(args) != 1 {
			fmt.Println("Usage: /run <n>")
			break
		}
		s.runCommand(args[0])
	case "/export":
		s.export(strings.Join(args, " "))
	case "/provider":
		if len(args) == 0 {
			fmt.Printf("Usage: /provider <name> [model]  (%s)\n", strings.Join(providers.SupportedProviders(), ", "))
			break
		}
		s.switchProvider(args)
	case "/token":
		snapshot := s.pipeline.Snapshot()
		s.rootDependencies.TokenManagement.DisplayTokens(snapshot.Provider, snapshot.Model)
	default:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, try /help", command)))
	}
	return false
}

func (s *chatSession) newProject(name string) {
	if name == "" {
		name = s.rootDependencies.Config.Sandbox.ProjectName
	}
	if err := s.pipeline.NewProject(name); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error creating project: %v", err)))
		return
	}
	s.rootDependencies.TokenManagement.ClearToken()
	snapshot := s.pipeline.Snapshot()
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Created %s at %s", snapshot.Project.Name, snapshot.Project.RootPath)))
}

func (s *chatSession) showFile(path string) {
	node := s.pipeline.Snapshot().Project.FindByPath(path)
	if node == nil || node.IsDirectory {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No file %s in the project", path)))
		return
	}
	if err := s.pipeline.SelectFile(node.ID); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	content := ""
	if node.Content != nil {
		content = *node.Content
	}
	fmt.Println(lipgloss.Info.Render(node.Path))
	if err := utils.HighlightFile(os.Stdout, node.Path, content, s.rootDependencies.Config.Theme); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
	fmt.Println()
}

func (s *chatSession) listCommands() {
	commands := s.pipeline.Snapshot().Commands
	if len(commands) == 0 {
		fmt.Println(lipgloss.Gray.Render("The last generation suggested no commands."))
		return
	}
	for i, command := range commands {
		fmt.Printf("  %d. %s\n", i+1, command)
	}
}

// runCommand executes a suggested command in the project root, only after
// it passes validation and the user confirms it.
func (s *chatSession) runCommand(arg string) {
	commands := s.pipeline.Snapshot().Commands
	index, err := strconv.Atoi(arg)
	if err != nil || index < 1 || index > len(commands) {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No suggested command %s", arg)))
		return
	}
	command := commands[index-1]

	if err := utils.ValidateCommand(command); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Refusing to run %q: %v", command, err)))
		return
	}

	accepted, err := utils.ConfirmPrompt(fmt.Sprintf("Run %q", command), s.reader)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting user prompt: %v", err)))
		return
	}
	if !accepted {
		fmt.Println(lipgloss.Red.Render("❌ Command skipped."))
		return
	}

	output, err := s.executor.ExecuteCommand(s.ctx, s.pipeline.Snapshot().Project.RootPath, command)
	if output != nil {
		fmt.Print(output.Stdout)
		if output.Stderr != "" {
			fmt.Print(lipgloss.Gray.Render(output.Stderr))
		}
	}
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("✔️ Command finished."))
}

func (s *chatSession) export(destination string) {
	snapshot := s.pipeline.Snapshot()
	if destination == "" {
		destination = filepath.Join(s.rootDependencies.Cwd, project_sandbox.Slugify(snapshot.Project.Name)+".zip")
	}

	count, err := s.rootDependencies.Sandbox.ExportZip(snapshot.Project.RootPath, destination, nil)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error exporting project: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Exported %d files to %s", count, destination)))
}

func (s *chatSession) switchProvider(args []string) {
	providerConfig := providers.AIProviderConfig{Provider: args[0]}
	if current := s.rootDependencies.Config.AIProviderConfig; current != nil && current.Provider == args[0] {
		providerConfig = *current
	}
	if len(args) > 1 {
		providerConfig.Model = args[1]
	}

	if err := s.pipeline.UpdateProviderConfig(providerConfig); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	snapshot := s.pipeline.Snapshot()
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Using %s (%s)", snapshot.Provider, snapshot.Model)))
}
