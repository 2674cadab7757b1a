package main

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/shaderlink/capability"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with capability catalogs",
	}

	check := &cobra.Command{
		Use:   "check <catalog.yaml>...",
		Short: "Validate catalog files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *multierror.Error
			for _, path := range args {
				if err := checkCatalog(path); err != nil {
					result = multierror.Append(result, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("ok"), path)
			}
			return result.ErrorOrNil()
		},
	}

	list := &cobra.Command{
		Use:   "list [catalog.yaml]",
		Short: "List the capabilities and resources of a catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCatalog(args, viper.GetString("preset"))
			if err != nil {
				return err
			}
			writeCatalog(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	list.Flags().String("preset", "", "built-in catalog: vertex, fragment or ray")

	cmd.AddCommand(check, list)
	return cmd
}

func checkCatalog(path string) error {
	f, err := openFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, err := capability.LoadYAML(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func loadCatalog(args []string, preset string) (*capability.Config, error) {
	switch {
	case len(args) == 1 && preset != "":
		return nil, fmt.Errorf("give either a catalog file or --preset")
	case len(args) == 1:
		f, err := openFile(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return capability.LoadYAML(f)
	}

	switch preset {
	case "vertex":
		return capability.VertexCatalog(), nil
	case "fragment":
		return capability.FragmentCatalog(), nil
	case "ray":
		return capability.RayCatalog(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
}

func writeCatalog(w io.Writer, cfg *capability.Config) {
	fmt.Fprintln(w, bold("Resources"))
	for _, entry := range cfg.Resources() {
		fmt.Fprintf(w, "  %s (%T)\n", entry.Resource.ResourceName(), entry.Resource)
	}
	fmt.Fprintln(w, bold("Capabilities"))
	for _, c := range cfg.Capabilities() {
		_, ids, _ := cfg.Lookup(c)
		fmt.Fprintf(w, "  %s", c)
		for _, id := range ids {
			if entry, ok := cfg.Resource(id); ok {
				fmt.Fprintf(w, " %s", entry.Resource.ResourceName())
			}
		}
		fmt.Fprintln(w)
	}
}
