package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cmdetect/internal/history"
	"cmdetect/internal/report"
)

const shortIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded detection runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireHistory(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, historyRows(runs))
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprint(out, renderHistoryTable(runs))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the result document of a recorded run (ID prefixes accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireHistory(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := report.Decode(bytes.NewReader(run.Document))
			if err != nil {
				return fmt.Errorf("run %s: %w", run.ID, err)
			}
			renderFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), renderFormat, doc)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format: auto, json, yaml, or table")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireHistory(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "Number of recent runs to keep")
	return cmd
}

func requireHistory(cmd *cobra.Command, ctx *commandContext) (*history.Store, error) {
	store, err := ctx.openHistory(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if store == nil {
		return nil, errors.New("history is disabled (set history.enabled = true)")
	}
	return store, nil
}

type historyRow struct {
	ID            string `json:"id"`
	Input         string `json:"input"`
	Source        string `json:"source"`
	CreatedAt     string `json:"created_at"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	Silences      int    `json:"silences"`
	Blocks        int    `json:"cm_blocks"`
	StartOffsetMs int64  `json:"start_offset_ms"`
}

func historyRows(runs []history.Run) []historyRow {
	rows := make([]historyRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, historyRow{
			ID:            run.ID,
			Input:         run.Input,
			Source:        string(run.Source),
			CreatedAt:     run.CreatedAt.Format(time.RFC3339),
			ElapsedMs:     run.Elapsed.Milliseconds(),
			Silences:      run.Silences,
			Blocks:        run.Blocks,
			StartOffsetMs: run.StartOffsetMs,
		})
	}
	return rows
}

func renderHistoryTable(runs []history.Run) string {
	headers := []string{"ID", "Created", "Source", "Input", "Silences", "Blocks", "Offset", "Elapsed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > shortIDLength {
			id = id[:shortIDLength]
		}
		rows = append(rows, []string{
			id,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(run.Source),
			report.Document{InputFile: run.Input}.DisplayName(),
			strconv.Itoa(run.Silences),
			strconv.Itoa(run.Blocks),
			report.FormatTimestamp(run.StartOffsetMs),
			run.Elapsed.Round(time.Millisecond).String(),
		})
	}
	return renderTable(headers, rows, aligns)
}
