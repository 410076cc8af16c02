package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/config"
	"prompt-enhancer/internal/reference"
)

func newPlatformsCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List platforms, presets and reference directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogFile == "" {
				if cfg, err := config.Load(config.HostCLI); err == nil {
					catalogFile = cfg.CatalogFile
				}
			}
			cat, err := catalog.Load(catalogFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tNAME\tWORDS\tCREATIVITY")
			for _, o := range cat.Platforms() {
				p := cat.Platform(o.Key)
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", o.Key, p.Name, p.MaxWords, p.Creativity)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PRESET\tDESCRIPTION")
			for _, o := range cat.Presets() {
				fmt.Fprintf(w, "%s\t%s\n", o.Key, o.Name)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "DIRECTIVE\tLABEL")
			for _, key := range reference.DirectiveKeys() {
				fmt.Fprintf(w, "%s\t%s\n", key, reference.ParseDirective(key).Config().Label)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog override YAML (default from CATALOG_FILE)")
	return cmd
}
