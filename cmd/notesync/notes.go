package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/model"
)

var (
	noteTitle    string
	noteContent  string
	noteCategory string

	listSearch   string
	listCategory string
	listJSON     bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		n, err := a.engine.AddNote(ctx, noteTitle, noteContent, noteCategory)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", n.ID, syncMark(*n))
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a note's title, content or category",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		id := cmd.Flags().Arg(0)
		existing, err := a.engine.Note(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("note %s not found", id)
		}

		title, content, cat := existing.Title, existing.Content, existing.Category
		if cmd.Flags().Changed("title") {
			title = noteTitle
		}
		if cmd.Flags().Changed("content") {
			content = noteContent
		}
		if cmd.Flags().Changed("category") {
			cat = noteCategory
		}

		n, err := a.engine.UpdateNote(ctx, id, title, content, cat)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", n.ID, syncMark(*n))
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		id := cmd.Flags().Arg(0)
		n, err := a.engine.Note(id)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s not found", id)
		}
		return a.engine.DeleteNote(ctx, *n)
	}),
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		f := cache.Filter{Search: listSearch}
		if listCategory != "" {
			f.Category = &listCategory
		}
		notes, err := a.engine.Notes(f)
		if err != nil {
			return err
		}
		if listJSON {
			if notes == nil {
				notes = []model.Note{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}
		return printNotes(cmd.OutOrStdout(), notes)
	}),
}

func printNotes(w io.Writer, notes []model.Note) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tUPDATED\tSYNC")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, truncate(n.Title, 40), n.Category,
			time.UnixMilli(n.UpdatedAt).Format("2006-01-02 15:04"), syncMark(n))
	}
	return tw.Flush()
}

func syncMark(n model.Note) string {
	if n.Dirty() {
		return "pending"
	}
	return "synced"
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
		c.Flags().StringVarP(&noteContent, "content", "m", "", "Note content")
		c.Flags().StringVar(&noteCategory, "category", "", "Category (default General)")
	}
	addCmd.MarkFlagRequired("title")
	addCmd.MarkFlagRequired("content")

	lsCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive text in title or content")
	lsCmd.Flags().StringVar(&listCategory, "category", "", "Only notes in this category")
	lsCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(addCmd, editCmd, rmCmd, lsCmd)
}
