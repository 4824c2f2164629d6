package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/spf13/cobra"
)

// generateCmd: lovable generate "a todo app"
var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Run a single generation turn and keep its preview running.",
	Long: `The 'generate' subcommand creates a starter project, runs one turn for the request and, when the dev
server started, keeps it running until you press Ctrl+C. Use --exit to stop right after the turn.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		exitAfterTurn, _ := cmd.Flags().GetBool("exit")
		handleGenerateCommand(rootDependencies, strings.Join(args, " "), exitAfterTurn)
	},
}

func init() {
	generateCmd.Flags().Bool("exit", false, "Stop the dev server and exit once the turn finishes.")
	rootCmd.AddCommand(generateCmd)
}

func handleGenerateCommand(rootDependencies *RootDependencies, request string, exitAfterTurn bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newPipeline(rootDependencies)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	defer p.Shutdown()

	snapshot := p.Snapshot()
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Project at %s", snapshot.Project.RootPath)))

	result, err := runTurn(ctx, p, request, rootDependencies.Config.Theme, snapshot.Provider)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	printTurnResult(result)
	rootDependencies.TokenManagement.DisplayTokens(snapshot.Provider, snapshot.Model)

	if exitAfterTurn || result.Outcome != models.OutcomeCompleted {
		return
	}

	// Follow the dev server until interrupted.
	lines, unsubscribe := p.Logs().Subscribe(256)
	defer unsubscribe()
	fmt.Println(lipgloss.Yellow.Render("Dev server running, press Ctrl+C to stop."))
	for {
		select {
		case <-ctx.Done():
			fmt.Println(lipgloss.Yellow.Render("\nStopping dev server..."))
			return
		case entry, ok := <-lines:
			if !ok {
				return
			}
			printLogEntry(entry)
		}
	}
}
