package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <content-id> <media-record-id>...",
	Short: "Queue cross-linking of media records under a content grouping",
	Long: `Queue cross-linking of media records under a content grouping.

The server compares every segment pair across the given media records and
records a link for each pair of near-duplicate texts, for example a slide
page and the video scene showing it. Linking runs in the background after
any queued ingestions have finished.

Examples:
  docprocai link 8a0f... 6f1c... 9d2e...`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
	contentID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid content id: %w", err)
	}

	recordIDs := make([]uuid.UUID, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("invalid media record id %q: %w", arg, err)
		}
		recordIDs = append(recordIDs, id)
	}

	if err := apiClient.LinkContent(context.Background(), contentID, recordIDs); err != nil {
		return fmt.Errorf("queue linking: %w", err)
	}

	fmt.Printf("Queued linking of %d media records under content %s\n", len(recordIDs), contentID)
	return nil
}
