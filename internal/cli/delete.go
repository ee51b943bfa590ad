package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <media-record-id>",
	Short: "Delete a media record's segments and links",
	Long: `Delete a media record's segments and links.

Links touching the record's segments are removed first, then the segments
themselves. Requires confirmation unless --force is used.

Examples:
  docprocai delete 6f1c5e9a-3b62-4b1f-9e61-8f2a4c7d0e11
  docprocai delete 6f1c5e9a-3b62-4b1f-9e61-8f2a4c7d0e11 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid media record id: %w", err)
	}

	if !deleteForce {
		fmt.Printf("About to delete all segments and links of media record %s\n", id)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := apiClient.DeleteMediaRecord(context.Background(), id); err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}

	fmt.Printf("Deleted media record %s\n", id)
	return nil
}
