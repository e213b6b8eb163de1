package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Program builds the live view program. The caller may Send RestartMsg to it.
func Program(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) *tea.Program {
	applyColorProfilePreference()
	applyScheme(opts.Scheme)
	m := NewModel(ctx, opts)
	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)}, progOpts...)
	return tea.NewProgram(m, progOpts...)
}
