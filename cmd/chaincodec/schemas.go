package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaincodec/chaincodec/internal/config"
	"github.com/chaincodec/chaincodec/internal/csdl"
	"github.com/chaincodec/chaincodec/internal/registry"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Load every configured CSDL directory and list the resulting registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		reg := registry.New()
		for _, ch := range cfg.Chains {
			for _, dir := range ch.CSDLDirs {
				schemas, err := csdl.LoadDir(dir)
				if err != nil {
					return fmt.Errorf("chain %s: %w", ch.Slug, err)
				}
				for _, s := range schemas {
					if err := reg.Upsert(s); err != nil {
						return fmt.Errorf("chain %s: schema %s v%d: %w", ch.Slug, s.Name, s.Version, err)
					}
				}
			}
		}

		for _, ch := range cfg.Chains {
			fmt.Fprintf(out, "chain %s:\n", ch.Slug)
			for _, s := range reg.ByChain(ch.Slug) {
				status := ""
				if s.Deprecated {
					status = " (deprecated)"
				}
				fmt.Fprintf(out, "  %-24s v%-3d %s%s\n", s.Name, s.Version, s.Fingerprint, status)
			}
		}
		return nil
	},
}
