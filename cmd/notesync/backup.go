package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/backup"
	"github.com/dukerupert/notesync/internal/store"
)

var (
	backupFile       string
	backupPassphrase string
)

func passphrase() string {
	if backupPassphrase != "" {
		return backupPassphrase
	}
	return os.Getenv("NOTESYNC_BACKUP_PASSPHRASE")
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an encrypted copy of the local database",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		mgr := backup.NewManager(a.db, store.NewSettingsStore(a.db), logger.With("component", "backup"))

		f, err := os.OpenFile(backupFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("create %s: %w", backupFile, err)
		}
		n, err := mgr.Export(ctx, f, passphrase())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(backupFile)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", backupFile, n)
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local database with an encrypted backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(backupFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", backupFile, err)
		}
		defer f.Close()

		summary, err := backup.Restore(f, cfg.DBPath, passphrase())
		if err != nil {
			return err
		}
		logger.Info("database restored", "path", cfg.DBPath, "notes", summary.Notes)
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d notes (uid %s, device %s) into %s\n",
			summary.Notes, summary.UID, summary.Device, cfg.DBPath)
		return nil
	},
}

var lastBackupCmd = &cobra.Command{
	Use:   "last-backup",
	Short: "Print when the last backup was written",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		mgr := backup.NewManager(a.db, store.NewSettingsStore(a.db), logger)
		at, ok, err := mgr.LastBackup()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "never")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), at.Local().Format(time.RFC1123))
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{backupCmd, restoreCmd} {
		c.Flags().StringVarP(&backupFile, "file", "f", "notesync.backup", "Archive path")
		c.Flags().StringVar(&backupPassphrase, "passphrase", "", "Archive passphrase (or NOTESYNC_BACKUP_PASSPHRASE)")
	}
	rootCmd.AddCommand(backupCmd, restoreCmd, lastBackupCmd)
}
