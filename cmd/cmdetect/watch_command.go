package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cmdetect/internal/batch"
	"cmdetect/internal/config"
	"cmdetect/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var media bool

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Process silencedetect logs as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve watch directory: %w", err)
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			opts := batch.Options{}
			store, err := ctx.openHistory(runCtx)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			if store != nil {
				defer store.Close()
				opts.Recorder = store
			}

			watchOpts := watch.OptionsFromConfig(cfg, dir)
			watchOpts.Media = media
			watcher, err := watch.New(dir, watchOpts, batch.New(cfg, logger, opts), logger)
			if err != nil {
				return err
			}
			return watcher.Run(runCtx)
		},
	}

	cmd.Flags().BoolVar(&media, "media", false, "Treat matching files as recordings (set watch.pattern accordingly)")
	return cmd
}
