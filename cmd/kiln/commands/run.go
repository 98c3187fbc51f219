package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [sources...]",
		Short: "Build a module, load it and call a function returning int",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			name, _ := cmd.Flags().GetString("name")
			level, _ := cmd.Flags().GetString("optimization")
			symbol, _ := cmd.Flags().GetString("symbol")

			res, err := c.app.Run(cmd.Context(), args, app.RunOptions{
				BuildOptions: app.BuildOptions{
					Cache:        c.cacheOptions(),
					Name:         name,
					Optimization: level,
					Debug:        c.debug,
				},
				Symbol: symbol,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Return)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Module name (defaults to the first source without its extension)")
	cmd.Flags().StringP("optimization", "O", "", "Optimization level: debug or a number")
	cmd.Flags().StringP("symbol", "s", "f", "Function to call")
	return cmd
}
