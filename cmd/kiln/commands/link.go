package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link --name NAME [objects...]",
		Short: "Link object files into a loadable module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			outDir, _ := cmd.Flags().GetString("out-dir")

			dest, err := c.app.Link(cmd.Context(), name, args, app.LinkOptions{
				OutDir: outDir,
				Debug:  c.debug,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Module name")
	cmd.Flags().String("out-dir", "", "Directory for the module (defaults to the directory of the first object)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
