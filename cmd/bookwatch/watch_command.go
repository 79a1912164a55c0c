package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookwatch/internal/logging"
	"bookwatch/internal/preflight"
	"bookwatch/internal/status"
	"bookwatch/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch <entity>",
		Short: "Poll download status and rescan files when downloads complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID := strings.TrimSpace(args[0])
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if failed := preflight.Failed([]preflight.Result{
				preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
			}); len(failed) > 0 {
				return preflightError(failed)
			}

			lock, err := watch.AcquireLock(cfg.WatchLockPath(entityID))
			if err != nil {
				return err
			}
			logger := ctx.loggerFor()
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release watch lock", logging.Error(err))
				}
			}()

			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			watcher, err := watch.New(watch.Options{
				EntityID:      entityID,
				Source:        api,
				Scanner:       api,
				Cache:         st,
				Gate:          status.NewGate(logger),
				Notifier:      ctx.notifier(),
				Logger:        logger,
				PollInterval:  cfg.PollInterval(),
				RetryInterval: cfg.ErrorRetryInterval(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if once {
				rescanned, err := watcher.Tick(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Rescanned: %s\n", yesNo(rescanned))
				return nil
			}

			fmt.Fprintf(out, "Watching %s every %s (Ctrl+C to stop)\n", entityID, cfg.PollInterval())
			if err := watcher.Run(cmd.Context()); err != nil {
				return err
			}
			summary := watcher.Summary()
			fmt.Fprintf(out, "Stopped after %d polls, %d rescans\n", summary.Polls, summary.Rescans)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Poll a single time and exit")
	return cmd
}
