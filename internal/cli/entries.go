package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faizmokh/tanda/internal/stampbook"
)

func newAddCommand(ctx context.Context, rt *runtime) *cobra.Command {
	return newRecordCommand(ctx, rt, stampbook.TypeMain, "add", "Record a main entry at a timestamp.")
}

func newSubCommand(ctx context.Context, rt *runtime) *cobra.Command {
	return newRecordCommand(ctx, rt, stampbook.TypeSub, "sub", "Record an indented sub-entry at a timestamp.")
}

func newRecordCommand(ctx context.Context, rt *runtime, typ stampbook.Type, use, short string) *cobra.Command {
	var noteFlags []string

	cmd := &cobra.Command{
		Use:   use + " <timestamp> [note ...]",
		Short: short,
		Long: use + " records an entry at mm:ss or h:mm:ss. Words after the timestamp form the note; " +
			"each --note adds a further note, joined with \" | \".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, path, err := rt.open(ctx)
			if err != nil {
				return err
			}

			ts := strings.TrimSpace(args[0])
			if err := c.Add(ts, collectNotes(args[1:], noteFlags), typ); err != nil {
				return fmt.Errorf("add %q: %w", ts, err)
			}
			if err := rt.save(ctx, path, c); err != nil {
				return err
			}

			entries := c.List()
			index := indexOf(entries, ts)
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d: %s\n", index+1, formatEntry(entries[index]))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&noteFlags, "note", "n", nil, "Additional note (repeatable)")

	return cmd
}

func newNoteCommand(ctx context.Context, rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <index> <text ...>",
		Short: "Replace the note of an entry by index.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			c, path, err := rt.open(ctx)
			if err != nil {
				return err
			}

			if !c.UpdateNote(index, strings.Join(args[1:], " ")) {
				return stampbook.ErrIndexOutOfRange
			}
			if err := rt.save(ctx, path, c); err != nil {
				return err
			}

			entry, _ := c.At(index)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %d: %s\n", index+1, formatEntry(entry))
			return nil
		},
	}

	return cmd
}

func newRemoveCommand(ctx context.Context, rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <index>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry by index.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			c, path, err := rt.open(ctx)
			if err != nil {
				return err
			}

			entry, ok := c.At(index)
			if !ok || !c.Remove(index) {
				return stampbook.ErrIndexOutOfRange
			}
			if err := rt.save(ctx, path, c); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %d: %s\n", index+1, formatEntry(entry))
			return nil
		},
	}

	return cmd
}

func newClearCommand(ctx context.Context, rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}

			c, path, err := rt.open(ctx)
			if err != nil {
				return err
			}

			count := c.Len()
			c.ClearAll()
			if err := rt.save(ctx, path, c); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the session")

	return cmd
}
