package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/albertomaydayjhondoe/porterias/internal/filex"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
)

// Clipboard receives operator instructions.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("system clipboard is not available")
	}
	return clipboard.WriteAll(text)
}

// Deliver copies text to clip. When the clipboard fails the text is written
// to dir/name instead and the returned string is that file path; otherwise it
// is empty.
func Deliver(ctx context.Context, log logging.Logger, clip Clipboard, dir, name, text string) (string, error) {
	if clip != nil {
		err := clip.WriteAll(text)
		if err == nil {
			return "", nil
		}
		log.Warn(ctx, "clipboard unavailable, writing instructions to file", "error", err)
	}

	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o660); err != nil {
		return "", fmt.Errorf("write instructions: %w", err)
	}
	return p, nil
}
