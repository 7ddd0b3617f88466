// Package main provides the grpcconn CLI for driving ad hoc gRPC calls
// against a running server without generated stubs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i2y/grpcconn/cmd/grpcconn/commands"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grpcconn",
		Short: "Client-side gRPC transport core command line driver",
		Long: `grpcconn dials a gRPC server and issues one call using raw message
bytes, with no generated stubs involved — useful for exercising the
middleware stack (deadlines, compression, reconnect) directly.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.AddCommand(
		commands.NewCallCommand(),
		commands.NewVersionCommand(version, commit, buildDate),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
