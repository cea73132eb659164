// Command evonftctl replays command scenarios against an in-memory ledger,
// renders stage artwork, checks that replays are deterministic and mints
// operator tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evonftctl",
		Short:         "Offline tooling for the evonft ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReplayCmd(), newRenderCmd(), newDigestCmd(), newSecretCmd())
	return root
}
