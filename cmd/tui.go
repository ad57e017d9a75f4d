package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/shared"
	"github.com/desertthunder/stagelog/internal/ui"
)

// TUI launches the interactive performance browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: task engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to a file to avoid interfering with TUI rendering
	logPath := filepath.Join(os.TempDir(), "stagelog-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)
	defer r.logger.SetOutput(os.Stderr)

	model := ui.NewModel(ctx, r.client, r.engine)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
