package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/linkpost/internal/config"
)

// DefaultCommandTimeout bounds a hook command whose entry sets no timeout.
const DefaultCommandTimeout = 10 * time.Second

// ShellRunner runs command through a shell with stdin attached and returns
// its combined output.
type ShellRunner func(ctx context.Context, command string, stdin []byte) ([]byte, error)

// Command returns a handler that runs command with the payload as JSON on
// stdin. A non-positive timeout uses DefaultCommandTimeout. A nil run uses
// sh -c.
func Command(command string, timeout time.Duration, run ShellRunner) Handler {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if run == nil {
		run = ShellIn("")
	}
	return func(ctx context.Context, p Payload) error {
		input, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if _, err := run(ctx, command, input); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("hook %q timed out after %s", command, timeout)
			}
			return fmt.Errorf("hook %q: %w", command, err)
		}
		return nil
	}
}

// RegisterConfig registers a command handler for every entry in cfg and
// returns how many were added. Handlers are named "<event>#<index>".
func (m *Manager) RegisterConfig(cfg config.HooksConfig, run ShellRunner) int {
	groups := []struct {
		event   string
		entries []config.HookEntry
	}{
		{EventLinkAcquired, cfg.LinkAcquired},
		{EventLinkFailed, cfg.LinkFailed},
		{EventMessageSending, cfg.MessageSending},
		{EventMessageSent, cfg.MessageSent},
		{EventRunFailed, cfg.RunFailed},
	}

	n := 0
	for _, g := range groups {
		for i, e := range g.entries {
			if strings.TrimSpace(e.Command) == "" {
				continue
			}
			timeout := time.Duration(e.Timeout) * time.Millisecond
			m.On(g.event, fmt.Sprintf("%s#%d", g.event, i), Command(e.Command, timeout, run))
			n++
		}
	}
	return n
}

// ShellIn returns a ShellRunner that runs commands from dir, so hook
// scripts kept there can be referenced by relative path. An empty dir runs
// from the current directory.
func ShellIn(dir string) ShellRunner {
	return func(ctx context.Context, command string, stdin []byte) ([]byte, error) {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = dir
		cmd.Stdin = bytes.NewReader(stdin)

		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(out.String()); msg != "" {
				return out.Bytes(), fmt.Errorf("%w: %s", err, msg)
			}
			return out.Bytes(), err
		}
		return out.Bytes(), nil
	}
}
