/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entitymapper/storagemodels"
)

var queryFlags struct {
	where  []string
	order  []string
	desc   bool
	skip   int32
	take   int32
	all    bool
	cursor string
	raw    bool
}

var queryCmd = &cobra.Command{
	Use:   "query <kind>",
	Short: "Query documents of one kind",
	Long: `Query prints one page of documents of a kind. Conditions use stored field
names; values that parse as numbers, booleans or null are compared as such.
The key is addressed as __key__. Pass --all to print every match on one page.

Example:
  docmap query Player --where 'rating>=1500' --order rating --desc --take 20
  docmap query Player --where name=Ada --cursor eyJ2IjpbXSwiaWQiOiIuLi4ifQ`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVarP(&queryFlags.where, "where", "w", nil, "condition such as name=Ada or 'age>=21' (repeatable)")
	f.StringArrayVarP(&queryFlags.order, "order", "o", nil, "field to order by (repeatable)")
	f.BoolVar(&queryFlags.desc, "desc", false, "order descending")
	f.Int32Var(&queryFlags.skip, "skip", 0, "documents to skip; ignored with --cursor")
	f.Int32Var(&queryFlags.take, "take", 20, "page size")
	f.BoolVar(&queryFlags.all, "all", false, "print every match; overrides --take")
	f.StringVar(&queryFlags.cursor, "cursor", "", "resume after this cursor")
	f.BoolVar(&queryFlags.raw, "raw", false, "print typed values and index flags")
}

type pageOutput struct {
	Documents      []json.RawMessage `json:"documents"`
	HasMoreResults bool              `json:"hasMoreResults"`
	NextCursor     string            `json:"nextCursor,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	q, err := buildQuery(args[0], queryFlags.where, queryFlags.order, queryFlags.desc)
	if err != nil {
		return err
	}
	q.Skip(queryFlags.skip)
	if !queryFlags.all {
		q.Take(queryFlags.take)
	}
	cursor := storagemodels.Cursor(queryFlags.cursor)

	res, err := store.RunQuery(cmd.Context(), q.PageQuery(cursor))
	if err != nil {
		return fmt.Errorf("query %s: %w", args[0], err)
	}
	pg := q.PageOf(res, cursor)

	out, err := renderPage(pg, queryFlags.raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func renderPage(pg storagemodels.Page, raw bool) ([]byte, error) {
	page := pageOutput{
		Documents:      make([]json.RawMessage, 0, len(pg.Entries)),
		HasMoreResults: pg.HasMoreResults,
		NextCursor:     string(pg.NextCursor),
	}
	for _, e := range pg.Entries {
		out, err := render(e.Document, raw)
		if err != nil {
			return nil, err
		}
		page.Documents = append(page.Documents, out)
	}

	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal page: %w", err)
	}
	return out, nil
}
