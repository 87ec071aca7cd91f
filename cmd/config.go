package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/namesake/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect namesake configuration",
	Long: `Inspect the resolved namesake configuration.

Examples:
  namesake config show                 # Show the configuration as YAML
  namesake config show --format json   # Show it as JSON
  namesake config validate             # Check names, theme and site lists
  namesake config validate --strict    # Treat warnings as errors`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the resolved configuration.

Errors stop namesake from applying the configuration:
- Name pairs with an empty dead or chosen name
- Pairs mapping a name to itself, mapping it twice, or chaining mappings
- Unknown themes, log levels and log formats

Warnings point at entries that will never match:
- Empty, duplicate or URL-shaped allowlist and blocklist entries
- An allowlist that is empty while the default mode blocks every site`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after loading the configuration file, applying
environment variable overrides and filling in defaults.`,
	RunE: runConfigShow,
}

var (
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "Output format (yaml, json)")
	AddFlagValidation(configShowCmd, "format", ValidateConfigFormat)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return configReadErr
	}
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Validating configuration file: %s\n", used)
	} else {
		fmt.Fprintln(out, "Validating configuration from the environment and defaults")
	}

	validation := config.ValidateConfigWithDetails(cfg)
	if !validation.HasErrors() && !validation.HasWarnings() {
		fmt.Fprintln(out, "✅ Configuration is valid!")
		return nil
	}

	fmt.Fprint(out, validation.String())
	if validation.HasErrors() {
		return fmt.Errorf("configuration validation failed with %d errors", len(validation.Errors))
	}
	if configStrict {
		return fmt.Errorf("configuration validation failed with %d warnings (strict mode)", len(validation.Warnings))
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(configFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
