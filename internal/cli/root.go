// Package cli implements the command line client for a running engine
// instance. All commands talk to the HTTP API; nothing here touches the
// index directly.
package cli

import (
	"github.com/spf13/cobra"
)

var serverURL string

// NewRootCommand builds the insight-cli command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "insight-cli",
		Short: "Client for the Insight Engine document Q&A service",
		Long: "insight-cli ingests documents into a running Insight Engine instance\n" +
			"and asks questions against the ingested corpus.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the engine instance")

	root.AddCommand(newIngestCommand())
	root.AddCommand(newIngestDirCommand())
	root.AddCommand(newAskCommand())

	return root
}
