package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/category"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local changes and pull notes from other devices",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		res := a.engine.SyncAll(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, a.engine.Status())
		fmt.Fprintf(out, "pushed %d (failed %d), downloaded %d, inserted %d, kept local %d\n",
			res.Pushed, res.PushFailed, res.Downloaded, res.Inserted, res.Skipped)
		return res.Err
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in identity and pending changes",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		dirty, err := a.engine.DirtyCount(ctx)
		if err != nil {
			return err
		}
		id := a.engine.Identity()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user:    %s (%s)\n", a.engine.DisplayName(), id.State)
		fmt.Fprintf(out, "uid:     %s\n", id.UID)
		fmt.Fprintf(out, "device:  %s\n", a.device)
		fmt.Fprintf(out, "remote:  %s\n", cfg.Remote.Kind)
		fmt.Fprintf(out, "pending: %d\n", dirty)
		return nil
	}),
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the remote store is reachable",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		err := a.engine.CheckConnection(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), a.engine.Status())
		return err
	}),
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List known categories with their colors and note counts",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		if err := a.registry.RefreshCounts(a.identity.UID()); err != nil {
			return err
		}
		cats, err := a.registry.List()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCOLOR\tNOTES")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Color, c.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nsuggested: %v\n", category.Predefined)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(syncCmd, statusCmd, pingCmd, categoriesCmd)
}
