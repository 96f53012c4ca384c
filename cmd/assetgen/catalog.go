package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"assetgen/internal/catalog"
	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

func newCatalogCmd() *cobra.Command {
	var (
		catalogPath string
		outputRoot  string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog entries and where their models will be written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPath
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputRoot = outputRoot
			}
			specs, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), specs, cfg.OutputRoot, format)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog file (default: built-in catalog)")
	cmd.Flags().StringVar(&outputRoot, "output", "", "output root used to show destinations")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}

type catalogEntry struct {
	domain.JobSpec `yaml:",inline"`
	Destination    string `yaml:"destination"`
}

func printCatalog(w io.Writer, specs []domain.JobSpec, outputRoot, format string) error {
	entries := make([]catalogEntry, 0, len(specs))
	for _, spec := range specs {
		entries = append(entries, catalogEntry{
			JobSpec:     spec,
			Destination: filepath.Join(outputRoot, filepath.FromSlash(spec.ArtifactKey())),
		})
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"assets": entries}); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTYLE\tPOLYCOUNT\tDESTINATION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.AssetID, e.Style, e.TargetComplexity, e.Destination)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
