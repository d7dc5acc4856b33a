package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "crust",
	Short: "🍕 crust — conversational pizza ordering service",
	Long:  "🍕 crust — a chat ordering service with long-term conversation memory",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}
