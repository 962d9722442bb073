package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the active configuration as YAML",
		Long: `Print the configuration after defaults, .env, environment, the config
file and flags have been applied. Passwords in the DSN are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, config.Overrides{})
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
