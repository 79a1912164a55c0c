package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookwatch/internal/books"
	"bookwatch/internal/identity"
)

type keyView struct {
	Kind string `json:"kind" yaml:"kind"`
	Rank int    `json:"rank" yaml:"rank"`
	Key  string `json:"key" yaml:"key"`
}

func newKeysCommand() *cobra.Command {
	var book books.Record
	var formatFlag string

	cmd := &cobra.Command{
		Use:         "keys",
		Short:       "Show the identity keys derived for a book",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(formatFlag)
			if err != nil {
				return err
			}
			keys := identity.BuildKeys(book)
			if keys.Empty() {
				return errors.New("book is unidentifiable: provide a title or an id")
			}
			views := make([]keyView, 0, len(keys))
			for _, key := range keys {
				views = append(views, keyView{Kind: string(key.Kind), Rank: key.Kind.Rank(), Key: key.String()})
			}
			if handled, err := writeStructured(cmd, format, views); handled {
				return err
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Kind, strconv.Itoa(v.Rank), v.Key})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Kind", "Rank", "Key"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&book.Title, "title", "", "Book title")
	flags.StringVar(&book.Author, "author", "", "Primary author")
	flags.StringVar(&book.Provider, "provider", "", "Metadata provider name")
	flags.StringVar(&book.ProviderBookID, "provider-id", "", "Provider book id")
	flags.StringVar(&book.ID, "id", "", "Raw record id")
	flags.StringVar(&formatFlag, "format", "table", "Output format: table, json, or yaml")
	return cmd
}
