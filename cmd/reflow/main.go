package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗┌─┐┌─┐┬  ┌─┐┬ ┬
  ╠╦╝├┤ ├┤ │  │ ││││
  ╩╚═└─┘└  ┴─┘└─┘└┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "reflow",
		Short: "Server-driven reactive UI for Go",
		Long: `Reflow renders component trees on the server and streams
document patches to connected clients over WebSocket.

  • Fine-grained dependency tracking
  • Batched, deterministic update scheduling
  • Keyed tree reconciliation
  • SSR with hydration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		rferrors.PrintError(err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}
