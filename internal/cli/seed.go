package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/marketplace-items/internal/seed"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Create sample items that are not present yet",
		Long: `Seed reads items from FILE (default SEED_FILE) and creates those the API does
not already have. Running it twice creates nothing the second time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rt.wrap(func(cmd *cobra.Command, args []string) error {
			path := rt.cfg.SeedFile
			if len(args) == 1 {
				path = args[0]
			}
			entries, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			report, runErr := rt.marketplace.Seed(cmd.Context(), entries)
			if rt.output == outputJSON {
				if err := rt.printJSON(cmd.OutOrStdout(), map[string]any{
					"created": report.Created,
					"skipped": report.Skipped,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d item(s), skipped %d already present\n", len(report.Created), report.Skipped)
			}
			if runErr != nil {
				return fmt.Errorf("seed items: %w", runErr)
			}
			return nil
		}),
	}
}
