// Package notify raises desktop notifications. Every backend is fire and
// forget: failures are logged and never reported to the caller.
package notify

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/gen2brain/beeep"

	"authcode-listener/config"
	"authcode-listener/internal/logger"
)

// Notifier dispatches a desktop notification
type Notifier interface {
	Notify(title, body string)
}

// New returns the notifier selected by the configuration
func New(cfg config.NotifyConfig, log *logger.Logger) Notifier {
	switch cfg.Backend {
	case config.NotifyBackendBeeep:
		return NewBeeep(log)
	case config.NotifyBackendNone:
		return Nop{}
	default:
		return NewExec(runtime.GOOS, log)
	}
}

// Nop discards notifications
type Nop struct{}

func (Nop) Notify(string, string) {}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Command returns the program and arguments that raise a notification on goos.
// ok is false on platforms without a supported notification utility.
func Command(goos, title, body string) (name string, args []string, ok bool) {
	switch goos {
	case "linux":
		return "notify-send", []string{
			"--urgency", "normal",
			"--expire-time", "5000",
			title,
			body,
		}, true
	case "darwin":
		script := `display notification "` + appleScriptEscaper.Replace(body) +
			`" with title "` + appleScriptEscaper.Replace(title) + `"`
		return "osascript", []string{"-e", script}, true
	default:
		return "", nil, false
	}
}

// Exec runs notify-send or osascript without waiting for it
type Exec struct {
	goos   string
	logger *logger.Logger
	start  func(name string, args ...string) error
}

// NewExec creates a notifier that runs the platform command for goos
func NewExec(goos string, log *logger.Logger) *Exec {
	return &Exec{
		goos:   goos,
		logger: log,
		start:  startDetached,
	}
}

// Notify starts the notification command without waiting for it
func (e *Exec) Notify(title, body string) {
	name, args, ok := Command(e.goos, title, body)
	if !ok {
		return
	}
	if err := e.start(name, args...); err != nil {
		e.logger.Debug("failed to start notifier", "command", name, "error", err)
	}
}

// startDetached starts the command and reaps it in the background
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// Beeep delivers notifications through the native platform APIs
type Beeep struct {
	logger *logger.Logger
	notify func(title, body string) error
}

// NewBeeep creates a notifier backed by beeep
func NewBeeep(log *logger.Logger) *Beeep {
	return &Beeep{
		logger: log,
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// Notify raises the notification in a background goroutine
func (b *Beeep) Notify(title, body string) {
	go func() {
		if err := b.notify(title, body); err != nil {
			b.logger.Debug("failed to show notification", "error", err)
		}
	}()
}
