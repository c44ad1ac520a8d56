/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entitymapper/storagemodels"
)

var getRaw bool

var getCmd = &cobra.Command{
	Use:   "get <kind> <id>",
	Short: "Print one document",
	Long: `Get prints the document stored under kind and id as JSON.

Example:
  docmap get Player 01926c3e-8f0a-7cc2-b5e4-4a4a1f5d0f3b
  docmap get Player 01926c3e-8f0a-7cc2-b5e4-4a4a1f5d0f3b --raw`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "print typed values and index flags")
}

func runGet(cmd *cobra.Command, args []string) error {
	key := storagemodels.Key{Kind: args[0], ID: args[1]}

	doc, err := store.Get(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", key)
	}

	out, err := render(doc, getRaw)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
