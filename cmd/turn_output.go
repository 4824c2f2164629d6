package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/openlovable/lovable/constants/lipgloss"
	pipeline_contracts "github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/openlovable/lovable/utils"
	"github.com/pterm/pterm"
)

// runTurn submits text and renders the stream as it arrives. The spinner
// runs until the first fragment.
func runTurn(ctx context.Context, p pipeline_contracts.IPipeline, text string, theme string, provider string) (*models.TurnResult, error) {
	spinner, _ := newSpinner().Start(spinnerText(provider))
	var once sync.Once
	stopSpinner := func() {
		once.Do(func() {
			if spinner != nil {
				_ = spinner.Stop()
			}
			fmt.Print("\r")
		})
	}
	defer stopSpinner()

	result, err := p.Submit(ctx, text, pipeline_contracts.WithChunkHandler(func(chunk string) {
		if chunk == "" {
			return
		}
		stopSpinner()
		if err := utils.RenderStreamChunk(ctx, os.Stdout, chunk, theme); err != nil {
			pterm.Debug.Println(err)
		}
	}))
	stopSpinner()
	fmt.Println()
	return result, err
}

func spinnerText(provider string) string {
	switch provider {
	case "anthropic":
		return "Claude is writing your app..."
	case "openai":
		return "ChatGPT is writing your app..."
	case "openrouter":
		return "OpenRouter AI is writing your app..."
	case "mistral":
		return "Mistral is writing your app..."
	case "ollama":
		return "Local AI is writing your app..."
	default:
		return "AI is thinking..."
	}
}

func printTurnResult(result *models.TurnResult) {
	if result == nil {
		return
	}

	if result.Report != nil {
		if len(result.Report.Written) > 0 {
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Wrote %d files: %s", len(result.Report.Written), strings.Join(result.Report.Written, ", "))))
		}
		if len(result.Report.Unchanged) > 0 {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("  Unchanged: %s", strings.Join(result.Report.Unchanged, ", "))))
		}
		for _, failure := range result.Report.Failed {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✘ %s: %v", failure.Path, failure.Err)))
		}
	}
	if len(result.Packages) > 0 {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Packages: %s", strings.Join(result.Packages, ", "))))
	}

	switch result.Outcome {
	case models.OutcomeCompleted:
		fmt.Println(lipgloss.Green.Render(result.AssistantMessage))
		if result.PreviewURL != "" {
			fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Preview: %s", result.PreviewURL)))
		}
	case models.OutcomeProviderFailed, models.OutcomeParseFailed:
		fmt.Println(lipgloss.Red.Render(result.AssistantMessage))
		if result.Err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", result.Err)))
		}
	default:
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%s: %v", result.Outcome, result.Err)))
	}

	if result.Artifact != nil && len(result.Artifact.Commands) > 0 {
		fmt.Println(lipgloss.Yellow.Render("Suggested commands (use /commands and /run N):"))
		for i, command := range result.Artifact.Commands {
			fmt.Printf("  %d. %s\n", i+1, command)
		}
	}
}

func printLogEntry(entry models.LogEntry) {
	line := fmt.Sprintf("[%s] %s", entry.Source, entry.Message)
	if entry.Source == models.SourceDevServer {
		fmt.Println(lipgloss.Gray.Render(line))
		return
	}
	fmt.Println(line)
}
