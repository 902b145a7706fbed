package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/config"
)

// NewConfigCmd returns the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the nowplay configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigSchemaCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the merged configuration",
		Long: `Shows the final configuration after merging:
1. Global config (~/.config/nowplay/nowplay.yml)
2. Found config (current directory upwards)
3. Override files (nowplay.override.yml)
This is useful for debugging configuration issues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			if path, err := cli.InitConfig(cli.GetOptions(cmd).ConfigFile); err == nil && path != "" {
				fmt.Printf("# Source: %s\n", path)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

			var err error
			var path string
			if len(args) == 1 {
				path = args[0]
				_, err = config.Load(path)
			} else {
				path, _ = cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
				_, err = cli.LoadConfig(cmd)
			}

			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid: %s\n", path)
				return handler.Handle(err)
			}

			fmt.Printf("Valid: %s\n", path)
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
