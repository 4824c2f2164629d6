package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/gateway"
	"github.com/spf13/cobra"
)

// serveCmd: lovable serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the generation pipeline over HTTP and WebSocket.",
	Long: `The 'serve' subcommand runs the pipeline behind a local HTTP API for a browser front end: project state,
turn submission, file edits, dev server control, zip export and a live log stream over WebSocket.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleServeCommand(rootDependencies)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Address the API listens on (default from server.addr).")
	rootCmd.AddCommand(serveCmd)
}

func handleServeCommand(rootDependencies *RootDependencies) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newPipeline(rootDependencies)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	defer p.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	handler := gateway.NewHandler(p, rootDependencies.Sandbox, rootDependencies.Logger)
	router := gateway.NewRouter(handler)

	addr := rootDependencies.Config.Server.Addr
	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("API listening on http://%s\nProject: %s", addr, p.Snapshot().Project.RootPath)))

	if err := gateway.Serve(ctx, addr, router, rootDependencies.Logger); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
}
