package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openlovable/lovable/constants/lipgloss"
)

// ErrInputClosed is returned once stdin reaches EOF.
var ErrInputClosed = errors.New("input closed")

// InputPromptWithContext prompts for the next request and returns early
// when ctx is canceled.
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		userInput, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if strings.TrimSpace(userInput) != "" {
					inputChan <- strings.TrimSpace(userInput)
					return
				}
				errChan <- ErrInputClosed
				return
			}
			errChan <- fmt.Errorf("error reading input: %w", err)
			return
		}

		inputChan <- strings.TrimSpace(userInput)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case input := <-inputChan:
		return input, nil
	}
}

// ConfirmPrompt asks a yes/no question; anything but y or yes is a no.
func ConfirmPrompt(message string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.Yellow.Render(fmt.Sprintf("%s (y/N): ", message)))

	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
