package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/faizmokh/tanda/internal/stampbook"
	"github.com/faizmokh/tanda/internal/timecode"
)

// listItem is the JSON shape of one entry in `list --json`.
type listItem struct {
	Index int `json:"index"`
	stampbook.Entry
	Seconds int `json:"seconds"`
}

func newListCommand(ctx context.Context, rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the session's entries in chronological order.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return runListJSON(ctx, cmd, rt)
			}
			return runList(ctx, cmd, rt)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
	c, path, err := rt.open(ctx)
	if err != nil {
		return err
	}

	entries := c.List()
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No entries in %s\n", path)
		return nil
	}
	printTable(cmd.OutOrStdout(), entries)
	return nil
}

func runListJSON(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
	c, _, err := rt.open(ctx)
	if err != nil {
		return err
	}

	entries := c.List()
	items := make([]listItem, 0, len(entries))
	for i, entry := range entries {
		items = append(items, listItem{Index: i + 1, Entry: entry, Seconds: entry.Seconds()})
	}

	data, err := sonic.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func newCheckCommand(ctx context.Context, rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <timestamp>",
		Short: "Report whether a timestamp is valid and still free in the session.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()

			if !timecode.Valid(ts) {
				fmt.Fprintf(out, "%s: invalid (expected mm:ss or h:mm:ss)\n", ts)
				return nil
			}

			c, _, err := rt.open(ctx)
			if err != nil {
				return err
			}
			if c.Exists(ts) {
				index := indexOf(c.List(), ts)
				fmt.Fprintf(out, "%s: duplicate of entry %d\n", ts, index+1)
				return nil
			}
			// Duplicates compare strings, so point out an equal offset written differently.
			canonical, _ := timecode.Canonical(ts)
			for i, entry := range c.List() {
				if other, _ := timecode.Canonical(entry.Timestamp); other == canonical {
					fmt.Fprintf(out, "%s: free, but entry %d (%s) marks the same offset\n", ts, i+1, entry.Timestamp)
					return nil
				}
			}
			fmt.Fprintf(out, "%s: free\n", ts)
			return nil
		},
	}

	return cmd
}

func newShiftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift <timestamp> <delta>",
		Short: "Print a timestamp moved by a number of seconds or a signed mm:ss.",
		Long:  "shift adds delta to timestamp and prints the result in canonical form. Results below zero clamp to 00:00.",
		Example: "  tanda shift 1:30 +5\n" +
			"  tanda shift 1:02:03 -1:00",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := strings.TrimSpace(args[0])
			if !timecode.Valid(ts) {
				return fmt.Errorf("shift %q: %w", ts, timecode.ErrInvalidFormat)
			}

			delta, err := timecode.ParseDelta(args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), timecode.Shift(ts, delta))
			return nil
		},
	}

	// Negative deltas look like flags; stop flag parsing at the first argument.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newSessionsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the session files in the tanda directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := rt.manager.Sessions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No sessions in %s\n", rt.manager.BasePath())
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	return cmd
}
