package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <media-record-id>",
	Short: "Queue a media record for ingestion",
	Long: `Queue a media record for ingestion.

The server resolves the record's type and download URL, extracts per-page or
per-scene segments, and stores them with their embeddings. Processing happens
in the background; the command returns as soon as the task is queued.

Examples:
  docprocai ingest 6f1c5e9a-3b62-4b1f-9e61-8f2a4c7d0e11`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid media record id: %w", err)
	}

	if err := apiClient.Ingest(context.Background(), id); err != nil {
		return fmt.Errorf("queue ingestion: %w", err)
	}

	fmt.Printf("Queued ingestion of media record %s\n", id)
	return nil
}
