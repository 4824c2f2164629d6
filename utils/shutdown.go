package utils

import (
	"context"
	"fmt"

	"github.com/openlovable/lovable/constants/lipgloss"
)

// GracefulShutdown waits for ctx to end, runs cleanup once, then cancels.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	<-ctx.Done()

	fmt.Println(lipgloss.Yellow.Render("\nShutting down..."))
	if cleanup != nil {
		cleanup()
	}
	cancel()
}
