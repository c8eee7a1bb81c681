package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cmdetect/internal/batch"
	"cmdetect/internal/fileutil"
	"cmdetect/internal/report"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var (
		media     bool
		format    string
		output    string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "detect [inputs...]",
		Short: "Detect CM blocks in silencedetect logs, recordings, or earlier results",
		Long: `Detect CM blocks from silence intervals.

Inputs are ffmpeg silencedetect logs unless --media is given, in which case
ffmpeg is run against each recording. Files ending in .json are earlier
result documents and are detected again from their silence_segments. With no
inputs, or "-", the log is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(format) == "" {
				format = cfg.Output.Format
			}
			renderFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			opts := batch.Options{Stdin: cmd.InOrStdin()}
			if !noHistory {
				store, err := ctx.openHistory(runCtx)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				if store != nil {
					defer store.Close()
					opts.Recorder = store
				}
			}

			runner := batch.New(cfg, logger, opts)
			outcomes, runErr := runner.Run(runCtx, batch.ClassifyAll(args, media))

			docs := make([]report.Document, 0, len(outcomes))
			for _, out := range outcomes {
				if out.Err == nil {
					docs = append(docs, out.Document)
				}
			}
			if len(docs) > 0 {
				if err := writeDocuments(cmd, renderFormat, output, docs); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&media, "media", false, "Treat inputs as recordings and run ffmpeg silencedetect on them")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: auto, json, yaml, or table (default from output.format)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history ledger")
	return cmd
}

func writeDocuments(cmd *cobra.Command, format report.Format, output string, docs []report.Document) error {
	output = strings.TrimSpace(output)
	if output == "" || output == "-" {
		return report.Write(cmd.OutOrStdout(), format, docs...)
	}
	err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
		return report.Write(w, format, docs...)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d result(s) to %s\n", len(docs), output)
	return nil
}
