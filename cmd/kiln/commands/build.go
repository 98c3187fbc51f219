package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [sources...]",
		Short: "Compile sources into a cached module and print its path",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			name, _ := cmd.Flags().GetString("name")
			object, _ := cmd.Flags().GetBool("object")
			level, _ := cmd.Flags().GetString("optimization")

			res, err := c.app.Build(cmd.Context(), args, app.BuildOptions{
				Cache:        c.cacheOptions(),
				Name:         name,
				Object:       object,
				Optimization: level,
				Debug:        c.debug,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.ArtifactPath)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Module name (defaults to the first source without its extension)")
	cmd.Flags().BoolP("object", "c", false, "Build an object file instead of a loadable module")
	cmd.Flags().StringP("optimization", "O", "", "Optimization level: debug or a number")
	return cmd
}
