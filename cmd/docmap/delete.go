/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entitymapper/storagemodels"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>...",
	Short: "Remove documents by ID",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		for _, id := range args[1:] {
			key := storagemodels.Key{Kind: kind, ID: id}
			if err := store.Delete(cmd.Context(), key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
		}
		return nil
	},
}
