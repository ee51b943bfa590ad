package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MEITREX/docprocai-fileingestlib/internal/client"
)

var linksCmd = &cobra.Command{
	Use:   "links <content-id>",
	Short: "List the linked segment pairs of a content grouping",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinks,
}

func runLinks(cmd *cobra.Command, args []string) error {
	contentID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid content id: %w", err)
	}

	pairs, err := apiClient.GetLinks(context.Background(), contentID)
	if err != nil {
		return fmt.Errorf("fetch links: %w", err)
	}

	if len(pairs) == 0 {
		fmt.Println("No links found.")
		return nil
	}

	fmt.Printf("Found %d links:\n\n", len(pairs))
	for i, pair := range pairs {
		fmt.Printf("%d. %s <-> %s\n", i+1, describeSegment(pair.Segment1), describeSegment(pair.Segment2))
		if verbose {
			fmt.Printf("   %s\n   %s\n", pair.Segment1.ID, pair.Segment2.ID)
		}
	}
	return nil
}

// describeSegment renders a short human-readable locator for a segment.
func describeSegment(seg client.Segment) string {
	switch seg.Source {
	case "document":
		page := 0
		if seg.Page != nil {
			page = *seg.Page
		}
		return fmt.Sprintf("document %s page %d", seg.MediaRecordID, page)
	case "video":
		start := 0
		if seg.StartTime != nil {
			start = *seg.StartTime
		}
		return fmt.Sprintf("video %s at %ds", seg.MediaRecordID, start)
	default:
		return fmt.Sprintf("segment %s", seg.ID)
	}
}
