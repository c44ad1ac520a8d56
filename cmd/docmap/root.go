/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/suparena/entitymapper"
	"github.com/suparena/entitymapper/config"
	"github.com/suparena/entitymapper/datastore"
)

var (
	// configFile is set by the --config flag.
	configFile string
	// backend overrides the configured backend when set.
	backend string

	store datastore.Store
)

var rootCmd = &cobra.Command{
	Use:   "docmap",
	Short: "Inspect entitymapper documents",
	Long: `docmap reads, queries and deletes the stored documents of an entitymapper
store. The store is selected by the config file, ENTITYMAPPER_* environment
variables and a .env file in the working directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: openStore,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "memory, sqlite or dynamodb")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(deleteCmd)
}

func openStore(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if backend != "" {
		cfg.Backend = backend
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	store, err = entitymapper.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	return nil
}

func closeStore() error {
	if c, ok := store.(datastore.Closer); ok {
		return c.Close()
	}
	return nil
}
