package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/staffassist/internal/domain/usecases"
)

// newSeedCmd creates the 'seed' command. A directory imports every dataset in it.
func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file|dir>",
		Short: "Import a JSON dataset into the business store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(false); err != nil {
				return err
			}

			st, err := openStore(a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			seeder := a.newSeeder(st, nil)
			path := args[0]

			var results []*usecases.SeedResult
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				results, err = seeder.SeedDir(cmd.Context(), path)
				if err != nil {
					return err
				}
			} else {
				res, err := seeder.Seed(cmd.Context(), path)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d orders, %d products, %d profiles\n",
					r.Path, r.Orders, r.Products, r.Profiles)
			}
			return nil
		},
	}
}
