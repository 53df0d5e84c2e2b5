package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/faizmokh/tanda/internal/files"
	"github.com/faizmokh/tanda/internal/ui"
)

// NewRootCommand creates the top-level Cobra command to host subcommands and TUI launcher.
func NewRootCommand(ctx context.Context, manager *files.Manager) *cobra.Command {
	return newRootCommand(ctx, newRuntime(manager))
}

func newRootCommand(ctx context.Context, rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tanda",
		Short: "Mark timestamps in a recording and attach notes from your terminal.",
		Long: "tanda records mm:ss or h:mm:ss offsets into a video or audio recording with notes, " +
			"as main entries or indented sub-entries, and exports them as text.",
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.configure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd) {
				return runList(ctx, cmd, rt)
			}
			return runTUI(ctx, rt)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&rt.session, "session", "s", "", "Session name under the tanda directory (default from config)")
	flags.StringVarP(&rt.file, "file", "f", "", "Session file path (overrides --session)")
	flags.StringVar(&rt.configPath, "config", "", "Config file (default <tanda dir>/config.yaml)")
	flags.BoolVarP(&rt.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newAddCommand(ctx, rt),
		newSubCommand(ctx, rt),
		newListCommand(ctx, rt),
		newNoteCommand(ctx, rt),
		newRemoveCommand(ctx, rt),
		newClearCommand(ctx, rt),
		newShiftCommand(),
		newCheckCommand(ctx, rt),
		newImportCommand(ctx, rt),
		newExportCommand(ctx, rt),
		newSessionsCommand(rt),
		newVersionCommand(),
	)

	return cmd
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

func runTUI(ctx context.Context, rt *runtime) error {
	path, err := rt.sessionPath()
	if err != nil {
		return err
	}
	if err := rt.manager.EnsureBase(); err != nil {
		return err
	}

	m := ui.NewModel(ctx, ui.Options{
		Store:     rt.store,
		Path:      path,
		ShiftStep: rt.config.ShiftStep,
		Logger:    rt.logger,
	})
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

// ExecuteCommand is a thin wrapper that executes the Cobra root command.
func ExecuteCommand(ctx context.Context) error {
	manager, err := files.NewManager("")
	if err != nil {
		return err
	}
	cmd := NewRootCommand(ctx, manager)
	return cmd.ExecuteContext(ctx)
}

// Main is a helper used by cmd/tanda/main.go to keep wiring contained in one package.
func Main(ctx context.Context) {
	if err := ExecuteCommand(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
