package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cmdetect/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools used for --media inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg))

			headers := []string{"Tool", "Available", "Required", "Path", "Version"}
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				location := status.Path
				if !status.Available {
					location = status.Detail
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					yesNo(!status.Optional),
					location,
					status.Version,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(headers, rows, nil))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing; --media runs will fail", len(missing))
			}
			return nil
		},
	}
}
