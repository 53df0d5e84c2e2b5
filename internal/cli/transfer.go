package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faizmokh/tanda/internal/files"
	"github.com/faizmokh/tanda/internal/stampbook"
)

func newImportCommand(ctx context.Context, rt *runtime) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load entries from a session or export file.",
		Long: "import reads round-trip (timestamp|notes|added|type) or export (timestamp notes) lines. " +
			"The session is replaced unless --merge is given. Unreadable lines and duplicates are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := files.ExpandHome(args[0])
			if err != nil {
				return err
			}

			c, path, err := rt.open(ctx)
			if err != nil {
				return err
			}

			report, err := rt.store.LoadInto(ctx, c, source, merge)
			if err != nil {
				return err
			}
			if err := rt.save(ctx, path, c); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d entries (%d rejected)\n", report.Accepted, report.Rejected)
			for _, problem := range report.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  line %d: %q\n", problem.Line, problem.Text)
			}
			for _, dup := range report.Duplicates {
				fmt.Fprintf(cmd.ErrOrStderr(), "  duplicate: %s\n", dup.Timestamp)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Keep existing entries and add the imported ones")

	return cmd
}

func newExportCommand(ctx context.Context, rt *runtime) *cobra.Command {
	var (
		noHeader    bool
		asciiIndent bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the human-readable listing to a file or stdout.",
		Long: "export writes one \"timestamp notes\" line per entry, sub-entries indented. " +
			"With --watch the file is regenerated whenever the session changes, until interrupted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rt.config.Export.Options()
			if noHeader {
				opts.Header = false
			}
			if asciiIndent {
				opts.ASCIIIndent = true
			}

			if len(args) == 0 {
				if watch {
					return fmt.Errorf("--watch needs an output path")
				}
				c, _, err := rt.open(ctx)
				if err != nil {
					return err
				}
				return stampbook.Export(cmd.OutOrStdout(), c.List(), opts)
			}

			target, err := files.ExpandHome(args[0])
			if err != nil {
				return err
			}

			count, err := exportOnce(ctx, rt, target, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", count, target)

			if !watch {
				return nil
			}
			return watchExport(ctx, cmd, rt, target, opts)
		},
	}

	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the generated-on banner")
	cmd.Flags().BoolVar(&asciiIndent, "ascii-indent", false, "Indent sub-entries with two ASCII spaces")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate the export on every session change")

	return cmd
}

func exportOnce(ctx context.Context, rt *runtime, target string, opts stampbook.ExportOptions) (int, error) {
	c, _, err := rt.open(ctx)
	if err != nil {
		return 0, err
	}
	entries := c.List()
	if err := rt.store.ExportFile(ctx, target, entries, opts); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func watchExport(ctx context.Context, cmd *cobra.Command, rt *runtime, target string, opts stampbook.ExportOptions) error {
	session, err := rt.sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(session), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", session)
	return files.WatchFile(ctx, session, files.DefaultDebounce, rt.logger, func() error {
		count, err := exportOnce(ctx, rt, target, opts)
		if err != nil {
			return err
		}
		rt.logger.Info("export regenerated", slog.String("path", target), slog.Int("entries", count))
		return nil
	})
}
