package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/project_sandbox"
	"github.com/spf13/cobra"
)

// exportCmd: lovable export <project-dir>
var exportCmd = &cobra.Command{
	Use:   "export <project-dir>",
	Short: "Export a generated project as a zip archive.",
	Long: `The 'export' subcommand archives a project directory, leaving out node_modules, dist, .git and the
sandbox's temporary files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return fmt.Errorf("unable to load configuration")
		}
		output, _ := cmd.Flags().GetString("output")
		excludes, _ := cmd.Flags().GetStringSlice("exclude")
		return handleExportCommand(rootDependencies, args[0], output, excludes)
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Archive path (default <project-name>.zip in the current directory).")
	exportCmd.Flags().StringSlice("exclude", nil, "Additional glob patterns to leave out of the archive.")
	rootCmd.AddCommand(exportCmd)
}

func handleExportCommand(rootDependencies *RootDependencies, projectDir string, output string, excludes []string) error {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return err
	}
	if output == "" {
		output = filepath.Join(rootDependencies.Cwd, project_sandbox.Slugify(filepath.Base(root))+".zip")
	}

	patterns := append(append([]string{}, project_sandbox.DefaultExportExcludes...), excludes...)
	count, err := rootDependencies.Sandbox.ExportZip(root, output, patterns)
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Exported %d files to %s", count, output)))
	return nil
}
