package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cleannote/internal/notes/app"
	"cleannote/internal/notes/domain/entities"
)

// ErrNoteNotFound is returned by commands addressing an unknown id.
var ErrNoteNotFound = errors.New("note not found")

func newListCommand(opts *options) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print all notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noteOrder, err := entities.ParseNoteOrder(order)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				notes, err := uc.GetNotes.Snapshot(ctx, noteOrder)
				if err != nil {
					return err
				}
				return printNotes(cmd.OutOrStdout(), notes)
			})
		},
	}
	cmd.Flags().StringVarP(&order, "order", "o", entities.DefaultNoteOrder().String(), "sort order: title|date|color[:asc|desc]")
	return cmd
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print one note as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				note, err := lookup(ctx, uc, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}
}

type noteFlags struct {
	title   string
	content string
	color   string
}

func (f *noteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "note title")
	cmd.Flags().StringVarP(&f.content, "content", "m", "", "note content")
	cmd.Flags().StringVar(&f.color, "color", "", "palette name or #AARRGGBB")
}

func newAddCommand(opts *options) *cobra.Command {
	var flags noteFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			color := entities.DefaultColor()
			if flags.color != "" {
				parsed, err := ParseColor(flags.color)
				if err != nil {
					return err
				}
				color = parsed
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				id, err := uc.AddNote.Execute(ctx, entities.NewNote(flags.title, flags.content, color))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(opts *options) *cobra.Command {
	var flags noteFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title, content or color of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				note, err := lookup(ctx, uc, id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					note.Title = flags.title
				}
				if cmd.Flags().Changed("content") {
					note.Content = flags.content
				}
				if cmd.Flags().Changed("color") {
					if note.Color, err = ParseColor(flags.color); err != nil {
						return err
					}
				}
				note.Timestamp = time.Now().UnixMilli()

				if _, err := uc.AddNote.Execute(ctx, *note); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a note and print it as JSON for restore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				note, err := lookup(ctx, uc, id)
				if err != nil {
					return err
				}
				if err := uc.DeleteNote.Execute(ctx, *note); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}
}

func newRestoreCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Re-add a deleted note read as JSON from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var note entities.Note
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&note); err != nil {
				return fmt.Errorf("failed to read note: %w", err)
			}
			if !note.ID.IsSaved() {
				return errors.New("restored note must carry its id")
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				id, err := uc.AddNote.Execute(ctx, note)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
}

func newWatchCommand(opts *options) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the note list every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noteOrder, err := entities.ParseNoteOrder(order)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, uc *app.NoteUseCases) error {
				stream, err := uc.GetNotes.Execute(ctx, noteOrder)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for notes := range stream {
					if err := printNotes(out, notes); err != nil {
						return err
					}
					if _, err := fmt.Fprintln(out); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&order, "order", "o", entities.DefaultNoteOrder().String(), "sort order: title|date|color[:asc|desc]")
	return cmd
}

func newColorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "colors",
		Short: "List the color palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range entities.Palette() {
				fmt.Fprintf(w, "%s\t%s\n", colorNames[c], c.Hex())
			}
			return w.Flush()
		},
	}
}

var colorNames = map[entities.Color]string{
	entities.ColorRedOrange:  "red-orange",
	entities.ColorLightGreen: "light-green",
	entities.ColorViolet:     "violet",
	entities.ColorBabyBlue:   "baby-blue",
	entities.ColorRedPink:    "red-pink",
}

// ParseColor accepts a palette name or a #AARRGGBB hex value.
func ParseColor(s string) (entities.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return entities.Color(v), nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

func lookup(ctx context.Context, uc *app.NoteUseCases, id int64) (*entities.Note, error) {
	note, err := uc.GetNote.Execute(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	return note, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q: %w", s, err)
	}
	return id, nil
}

func printNotes(out io.Writer, notes []entities.Note) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOLOR\tUPDATED\tCONTENT")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, n.Title, n.Color.Hex(),
			time.UnixMilli(n.Timestamp).Format(time.DateTime),
			strings.ReplaceAll(n.Content, "\n", " "))
	}
	return w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
