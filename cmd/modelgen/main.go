package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/cli"
	"github.com/example/modelgen/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "modelgen",
		Short:   "modelgen - CFWheels model generator",
		Version: version.String(),
		Long: `modelgen reads a relational schema and writes one CFWheels model
component per table, with relationships, validations and property docs.`,
		SilenceUsage: true,
	}

	cli.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.GenerateCmd())
	rootCmd.AddCommand(cli.TablesCmd())
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
