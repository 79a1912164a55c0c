package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookwatch/internal/availability"
	"bookwatch/internal/books"
	"bookwatch/internal/catalog"
	"bookwatch/internal/logging"
	"bookwatch/internal/services"
	"bookwatch/internal/status"
)

type bookView struct {
	Title        string `json:"title" yaml:"title"`
	Author       string `json:"author,omitempty" yaml:"author,omitempty"`
	ProviderKey  string `json:"provider_key,omitempty" yaml:"provider_key,omitempty"`
	Monitored    bool   `json:"monitored" yaml:"monitored"`
	HasEbook     bool   `json:"has_ebook" yaml:"has_ebook"`
	HasAudiobook bool   `json:"has_audiobook" yaml:"has_audiobook"`
	Download     string `json:"download,omitempty" yaml:"download,omitempty"`
	Progress     int    `json:"progress,omitempty" yaml:"progress,omitempty"`
}

func newBooksCommand(ctx *commandContext) *cobra.Command {
	var query string
	var offline bool
	var missingFlag string
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "books <entity>",
		Short: "List an entity's books with availability and download state",
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
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runCtx := services.WithEntityID(cmd.Context(), entityID)
			logger := logging.WithContext(runCtx, logging.NewComponentLogger(ctx.loggerFor(), "books"))

			snapshot, err := st.MonitoredBooks(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("load monitored books: %w", err)
			}
			monitored := snapshot.Records()

			var searched []books.Record
			var corr status.Correlation
			if !offline {
				api, err := ctx.apiClient()
				if err != nil {
					return err
				}
				if q := strings.TrimSpace(query); q != "" {
					searched, err = api.SearchBooks(runCtx, q)
					if err != nil {
						return fmt.Errorf("search books: %w", err)
					}
				}
				polled, err := api.PollStatus(runCtx)
				if err != nil {
					logging.WarnWithContext(logger, "download status unavailable", "status_poll_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
						logging.String(logging.FieldImpact, "download column left blank"),
					)
				} else {
					corr = status.Correlate(polled, monitored)
				}
			}

			files, err := st.MatchedFiles(runCtx, entityID)
			if err != nil {
				return fmt.Errorf("load matched files: %w", err)
			}
			idx := availability.BuildIndex(files)

			var missing books.ContentType
			if strings.TrimSpace(missingFlag) != "" {
				contentType, ok := books.ParseContentType(missingFlag)
				if !ok {
					return fmt.Errorf("unknown content type %q", missingFlag)
				}
				missing = contentType
			}

			entries := catalog.Merge(searched, monitored)
			views := make([]bookView, 0, len(entries))
			for _, entry := range entries {
				avail := availability.Classify(entry.Book, idx, cfg.Acquisition.EbookFormats, cfg.Acquisition.AudiobookFormats)
				if missing != "" && avail.Has(missing) {
					continue
				}
				views = append(views, buildBookView(entry, avail, corr))
			}

			if handled, err := writeStructured(cmd, format, views); handled {
				return err
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No books found")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				download := v.Download
				if download != "" && v.Progress > 0 && v.Progress < 100 {
					download = fmt.Sprintf("%s %d%%", download, v.Progress)
				}
				rows = append(rows, []string{v.Title, v.Author, yesNo(v.Monitored), yesNo(v.HasEbook), yesNo(v.HasAudiobook), download})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Title", "Author", "Monitored", "Ebook", "Audiobook", "Download"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "Merge catalog search results for this query")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use only the local cache")
	cmd.Flags().StringVar(&missingFlag, "missing", "", "Only list books missing this content type (ebook or audiobook)")
	cmd.Flags().StringVar(&formatFlag, "format", "table", "Output format: table, json, or yaml")
	return cmd
}

func buildBookView(entry catalog.Entry, avail availability.Availability, corr status.Correlation) bookView {
	book := entry.Book
	title := strings.TrimSpace(book.Title)
	if title == "" {
		title = strings.TrimSpace(book.SearchTitle)
	}
	view := bookView{
		Title:        title,
		Author:       book.FirstAuthor(),
		ProviderKey:  book.ProviderKey(),
		Monitored:    entry.Monitored,
		HasEbook:     avail.HasEbook,
		HasAudiobook: avail.HasAudiobook,
	}
	if hit, ok := corr.Lookup(book); ok {
		view.Download = string(hit.Bucket)
		view.Progress = int(hit.Progress)
	}
	return view
}
