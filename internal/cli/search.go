package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	searchWhitelist []string
	searchBlacklist []string
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over indexed media records",
	Long: `Semantic search over indexed media records.

The query is embedded server-side and matched against stored segments by
vector distance. Only segments of whitelisted media records are searched;
without a whitelist the result is always empty.

Examples:
  docprocai search "gradient descent" -w 6f1c... -w 9d2e...
  docprocai search "eigenvalues" -w 6f1c... -b 9d2e... -n 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchWhitelist, "whitelist", "w", nil, "media record ids to search (required)")
	searchCmd.Flags().StringSliceVarP(&searchBlacklist, "blacklist", "b", nil, "media record ids to exclude")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	whitelist, err := parseUUIDs(searchWhitelist)
	if err != nil {
		return fmt.Errorf("invalid whitelist: %w", err)
	}
	blacklist, err := parseUUIDs(searchBlacklist)
	if err != nil {
		return fmt.Errorf("invalid blacklist: %w", err)
	}

	results, err := apiClient.Search(context.Background(), query, searchLimit, whitelist, blacklist)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, res := range results {
		fmt.Printf("%d. %s (distance %.4f)\n", i+1, describeSegment(res.Segment), res.Score)
		text := res.Segment.Text
		if res.Segment.Source == "video" {
			text = res.Segment.ScreenText
		}
		if len(text) > 100 && !verbose {
			text = text[:100] + "..."
		}
		if text != "" {
			fmt.Printf("   %s\n", text)
		}
	}
	return nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
