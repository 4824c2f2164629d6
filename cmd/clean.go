package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/utils"
	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every generated project under the sandbox root",
	Long: `The 'clean' command deletes the sandbox root with every project generated into it, installed
node_modules included. Use --stats to only show what is there.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		handleCleanCommand(force, stats, cmd)
	},
}

func init() {
	cleanCmd.Flags().BoolP("force", "f", false, "Remove without confirmation")
	cleanCmd.Flags().BoolP("stats", "s", false, "Show sandbox statistics instead of removing anything")

	rootCmd.AddCommand(cleanCmd)
}

func handleCleanCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	stats, err := rootDependencies.Sandbox.Stats()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if showStats {
		fmt.Println(lipgloss.Info.Render("Sandbox Statistics:"))
		fmt.Printf("  Root: %s\n", stats.Root)
		fmt.Printf("  Projects: %d\n", stats.Projects)
		fmt.Printf("  Total Size: %.2f MB\n", float64(stats.TotalSize)/(1024*1024))
		return
	}

	if stats.Projects == 0 {
		fmt.Println(lipgloss.Yellow.Render("No projects to remove."))
		return
	}

	if !force {
		accepted, err := utils.ConfirmPrompt(fmt.Sprintf("Remove %d projects under %s?", stats.Projects, stats.Root), bufio.NewReader(os.Stdin))
		if err != nil || !accepted {
			fmt.Println(lipgloss.Yellow.Render("Clean cancelled."))
			return
		}
	}

	spinnerInstance, _ := newSpinner().Start("Removing projects...")

	err = rootDependencies.Sandbox.Clean()
	if spinnerInstance != nil {
		_ = spinnerInstance.Stop()
	}
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error removing projects: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d projects.", stats.Projects)))
}
