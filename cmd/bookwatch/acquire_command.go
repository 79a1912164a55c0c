package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bookwatch/internal/acquisition"
	"bookwatch/internal/activity"
	"bookwatch/internal/availability"
	"bookwatch/internal/batch"
	"bookwatch/internal/books"
	"bookwatch/internal/catalog"
	"bookwatch/internal/logging"
	"bookwatch/internal/preflight"
	"bookwatch/internal/services"
)

func newAcquireCommand(ctx *commandContext) *cobra.Command {
	var contentFlag string
	var fallback bool
	var limit int
	var formatFlag string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "acquire <entity>",
		Short: "Auto-download every monitored book missing the requested format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(formatFlag)
			if err != nil {
				return err
			}
			entityID := strings.TrimSpace(args[0])
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if contentFlag == "" {
				contentFlag = cfg.Acquisition.DefaultContentType
			}
			contentType, ok := books.ParseContentType(contentFlag)
			if !ok {
				return fmt.Errorf("unknown content type %q", contentFlag)
			}

			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
					return preflightError(failed)
				}
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
			logger := ctx.loggerFor()

			snapshot, err := st.MonitoredBooks(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("load monitored books: %w", err)
			}
			files, err := st.MatchedFiles(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("load matched files: %w", err)
			}
			candidates := availability.Missing(
				catalog.Books(catalog.Merge(nil, snapshot.Records())),
				availability.BuildIndex(files),
				contentType,
				cfg.Acquisition.EbookFormats,
				cfg.Acquisition.AudiobookFormats,
			)
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintf(out, "Nothing to acquire: every monitored book has a %s\n", contentType)
				return nil
			}

			notifier := ctx.notifier()
			board := activity.NewBoard()
			board.Subscribe(progressPrinter(cmd.ErrOrStderr()))

			decider := acquisition.NewDecider(api,
				acquisition.WithLedger(st),
				acquisition.WithNotifier(notifier),
				acquisition.WithBoard(board),
				acquisition.WithLogger(logger),
				acquisition.WithMinMatchScore(cfg.Acquisition.MinMatchScore),
				acquisition.WithLanguages(cfg.Acquisition.Languages),
			)
			orchestrator := batch.NewOrchestrator(decider, board,
				batch.WithNotifier(notifier),
				batch.WithLogger(logger),
			)

			action := acquisition.ActionForced
			if fallback {
				action = acquisition.ActionDefault
			}
			report := orchestrator.RunBatch(runCtx, batch.Request{
				EntityID:    entityID,
				Books:       candidates,
				ContentType: contentType,
				Action:      action,
			})
			logger.Info("batch finished",
				logging.String(logging.FieldBatchID, report.BatchID),
				logging.String("summary", report.Stats.Summary()),
				logging.Bool("cancelled", report.Cancelled),
			)

			if handled, err := writeStructured(cmd, format, report); handled {
				return err
			}
			rows := make([][]string, 0, len(report.Items))
			for _, item := range report.Items {
				rows = append(rows, []string{item.Book, string(item.Outcome), string(item.Status), item.Error})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Book", "Outcome", "Status", "Error"}, rows, nil))
			fmt.Fprintln(out, report.Stats.Summary())
			if report.Cancelled {
				return cmd.Context().Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentFlag, "content-type", "t", "", "Content type to acquire (ebook or audiobook)")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "Report books without a confident release as fallback instead of skipped")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many books")
	cmd.Flags().StringVar(&formatFlag, "format", "table", "Output format: table, json, or yaml")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and API readiness checks")
	return cmd
}

func progressPrinter(w io.Writer) activity.Listener {
	return func(rec activity.Record, removed bool) {
		if removed || rec.StatusDetail == "" {
			return
		}
		fmt.Fprintf(w, "[%3d%%] %s\n", rec.Progress, rec.StatusDetail)
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return errors.New("preflight failed: " + strings.Join(parts, "; "))
}
