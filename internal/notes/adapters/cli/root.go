// Package cli implements the notesctl command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cleannote/internal/notes/app"
	"cleannote/pkg/logger"
)

// Opener returns ready use cases and a function releasing what backs them.
type Opener func(ctx context.Context, configPath string) (*app.NoteUseCases, func(context.Context) error, error)

type options struct {
	open       Opener
	configPath string
	verbose    bool
}

// NewRootCommand builds notesctl. open is called once per command run.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &options{open: open}

	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Manage personal notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			log, err := logger.NewLogger(logger.Development, level)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cmd.SetContext(logger.NewContext(cmd.Context(), log))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (defaults to NOTES_* environment)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newListCommand(opts),
		newGetCommand(opts),
		newAddCommand(opts),
		newEditCommand(opts),
		newDeleteCommand(opts),
		newRestoreCommand(opts),
		newWatchCommand(opts),
		newColorsCommand(),
	)
	return root
}

func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, uc *app.NoteUseCases) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	uc, release, err := o.open(ctx, o.configPath)
	if err != nil {
		return fmt.Errorf("failed to open note store: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Log(ctx).Warn(ctx, "failed to release note store", zap.Error(err))
		}
	}()

	return fn(ctx, uc)
}
