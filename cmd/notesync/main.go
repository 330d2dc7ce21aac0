// Package main provides the entry point for the notesync CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/notesync/cmd/notesync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
