/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command docmap inspects the documents of an entitymapper store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
