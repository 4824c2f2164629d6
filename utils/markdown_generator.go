package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightFile writes content highlighted for the file's language. Unknown
// extensions are written as plain text.
func HighlightFile(w io.Writer, path string, content string, theme string) error {
	language := GetSupportedLanguage(path)
	if language == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := quick.Highlight(w, content, language, "terminal256", theme); err != nil {
		return fmt.Errorf("error highlighting %s: %w", path, err)
	}
	return nil
}

// RenderStreamChunk prints a streamed fragment. Generation output is tagged
// markup, so it is highlighted as XML line by line and stops on cancellation.
func RenderStreamChunk(ctx context.Context, w io.Writer, chunk string, theme string) error {
	lines := strings.SplitAfter(chunk, "\n")
	for i, line := range lines {
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if line == "" {
			continue
		}
		if err := quick.Highlight(w, line, "xml", "terminal256", theme); err != nil {
			return fmt.Errorf("error rendering output: %w", err)
		}
	}
	return nil
}
