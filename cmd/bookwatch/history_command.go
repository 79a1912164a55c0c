package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "history <entity>",
		Short: "Show recorded acquisition attempts for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(formatFlag)
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			attempts, err := st.Attempts(cmd.Context(), strings.TrimSpace(args[0]), limit)
			if err != nil {
				return fmt.Errorf("load attempts: %w", err)
			}
			if handled, err := writeStructured(cmd, format, attempts); handled {
				return err
			}

			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No attempts recorded")
				return nil
			}
			rows := make([][]string, 0, len(attempts))
			for _, a := range attempts {
				rows = append(rows, []string{
					a.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					a.Provider + ":" + a.BookID,
					string(a.ContentType),
					string(a.Status),
					formatExtra(a.Extra),
				})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Recorded", "Book", "Type", "Status", "Detail"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum attempts to show (0 for all)")
	cmd.Flags().StringVar(&formatFlag, "format", "table", "Output format: table, json, or yaml")
	return cmd
}

func formatExtra(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, extra[k]))
	}
	return strings.Join(parts, " ")
}
