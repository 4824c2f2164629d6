package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/spf13/cobra"
)

// doctorCmd: lovable doctor
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that node and the package manager are usable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return fmt.Errorf("unable to load configuration")
		}
		return handleDoctorCommand(cmd.Context(), rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func handleDoctorCommand(ctx context.Context, rootDependencies *RootDependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	diagnosis := rootDependencies.Doctor.Check(ctx)

	fmt.Printf("node: %s\n", valueOr(diagnosis.NodePath, "not found"))
	fmt.Printf("%s: %s\n", rootDependencies.Config.DevServer.PackageManager, valueOr(diagnosis.NpmPath, "not found"))
	if diagnosis.OK {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ %s", diagnosis.Message)))
		return nil
	}
	fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✘ %s", diagnosis.Message)))
	return fmt.Errorf("toolchain check failed")
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
