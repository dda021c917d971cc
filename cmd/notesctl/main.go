// Package main runs the notesctl command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cleannote/internal/notes/adapters/cli"
	"cleannote/internal/notes/app"
	"cleannote/internal/notes/config"
	"cleannote/internal/notes/storage"
)

func open(ctx context.Context, configPath string) (*app.NoteUseCases, func(context.Context) error, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.NewNoteUseCases(store.Repository), store.Close, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.NewRootCommand(open).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "notesctl:", err)
		os.Exit(1)
	}
}
