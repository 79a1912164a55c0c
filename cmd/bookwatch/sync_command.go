package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookwatch/internal/logging"
	"bookwatch/internal/services"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var skipScan bool

	cmd := &cobra.Command{
		Use:   "sync <entity>",
		Short: "Refresh the cached monitored books and file scan for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID := strings.TrimSpace(args[0])
			if entityID == "" {
				return errors.New("entity id is required")
			}
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runCtx := services.WithEntityID(cmd.Context(), entityID)
			logger := logging.WithContext(runCtx, logging.NewComponentLogger(ctx.loggerFor(), "sync"))

			monitored, err := api.ListMonitoredBooks(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("list monitored books: %w", err)
			}
			if err := st.ReplaceMonitoredBooks(runCtx, entityID, monitored.Books, monitored.LastCheckedAt); err != nil {
				return fmt.Errorf("cache monitored books: %w", err)
			}
			logger.Info("monitored books synced", logging.Int("books", len(monitored.Books)))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cached %d monitored books for %s\n", len(monitored.Books), entityID)
			if skipScan {
				return nil
			}

			files, err := api.ScanFiles(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("scan files: %w", err)
			}
			if err := st.ReplaceMatchedFiles(runCtx, entityID, files); err != nil {
				return fmt.Errorf("cache matched files: %w", err)
			}
			logger.Info("matched files synced", logging.Int("files", len(files)))
			fmt.Fprintf(out, "Cached %d matched files for %s\n", len(files), entityID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipScan, "no-scan", false, "Skip the file rescan")
	return cmd
}
