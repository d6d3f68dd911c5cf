// Package main is the entry point for the jellyfin application.
package main

import (
	"os"

	"github.com/hertelukas/jellyfin/cmd/jellyfin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
