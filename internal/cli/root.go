// Package cli provides the command-line interface for docprocai.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/MEITREX/docprocai-fileingestlib/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// API client shared by all commands
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docprocai",
	Short: "Lecture media ingestion and semantic search",
	Long: `Docprocai ingests lecture documents and videos into a vector store,
cross-links near-duplicate segments across media records, and answers
semantic search queries over the indexed content.

All commands talk to a running docprocai server.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $DOCPROCAI_SERVER_URL or http://localhost:9901)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
}
