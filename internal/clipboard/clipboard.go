// Package clipboard writes verification codes to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Sink sets the system clipboard text
type Sink interface {
	SetText(text string) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(text string) error

func (f SinkFunc) SetText(text string) error {
	return f(text)
}

// System writes to the desktop clipboard through xclip, xsel, wl-copy,
// pbcopy or the Windows API, whichever the platform provides.
type System struct{}

// NewSystem returns the system clipboard sink
func NewSystem() *System {
	return &System{}
}

// SetText replaces the clipboard contents with text
func (s *System) SetText(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
