package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the compiler cache",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(c.newCachePathCmd())
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCacheCleanCmd())
	return cmd
}

func (c *CLI) newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := c.app.CachePath(c.cacheOptions())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	}
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached modules, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, entries, err := c.app.CacheList(c.cacheOptions())
			if err != nil {
				return err
			}
			p := output.New(cmd.OutOrStdout())
			if len(entries) == 0 {
				return p.Println(p.Paint(root+" is empty", style.Ash))
			}

			var total uint64
			w := tabwriter.NewWriter(p.Writer(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ENTRY\tSIZE\tAGE\tSOURCES")
			for _, e := range entries {
				mark, sources := p.Paint(style.Check, style.Green), strings.Join(e.Sources, ",")
				if !e.Complete {
					mark, sources = p.Paint(style.Cross, style.Red), "(incomplete)"
				}
				size := uint64(max(e.Size, 0))
				total += size
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n",
					e.Fingerprint.Short(),
					humanize.Bytes(size),
					humanize.RelTime(e.ModTime, time.Now(), "ago", "from now"),
					mark,
					sources,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return p.Println(p.Paint(fmt.Sprintf("%d entries, %s in %s", len(entries), humanize.Bytes(total), root), style.Ash))
		},
	}
}

func (c *CLI) newCacheCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.CacheClean(cmd.Context(), c.cacheOptions())
		},
	}
}
