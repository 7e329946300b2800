package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show changes made through this tool",
		Long: `History lists the create, update and delete operations recorded in the local
journal, newest first. It is empty unless STORAGE_TYPE=bbolt.`,
		Args: cobra.NoArgs,
		RunE: rt.wrap(func(cmd *cobra.Command, _ []string) error {
			changes, err := rt.marketplace.History(limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			return rt.printChanges(cmd.OutOrStdout(), changes)
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of changes to show (0 for all)")
	return cmd
}
