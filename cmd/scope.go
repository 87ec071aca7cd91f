package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/namesake/internal/scope"
	"github.com/conneroisu/namesake/internal/status"
)

var scopeCmd = &cobra.Command{
	Use:   "scope <url>",
	Short: "Show whether a site would be rewritten",
	Long: `Resolve the allowlist, the blocklist and the default mode for a URL and
print the parsing status, including the entries that matched.

Examples:
  namesake scope https://www.example.com/profile
  namesake scope --format json example.com/admin`,
	Args: cobra.ExactArgs(1),
	RunE: runScope,
}

var scopeFormat string

func init() {
	rootCmd.AddCommand(scopeCmd)

	scopeCmd.Flags().StringVarP(&scopeFormat, "format", "f", string(status.FormatText), "output format (text, json, yaml, markdown)")
	AddFlagValidation(scopeCmd, "format", ValidateFormat)
}

func runScope(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := status.ParseFormat(scopeFormat)
	if err != nil {
		return err
	}

	candidate, err := scope.Candidate(args[0])
	if err != nil {
		return err
	}
	decision := scope.Disabled()
	if cfg.Enabled {
		resolver := scope.NewResolver(scope.DefaultCacheSize)
		decision = resolver.Resolve(cfg.Allowlist, cfg.Blocklist, cfg.DefaultAllowMode, candidate)
	}

	return status.Write(cmd.OutOrStdout(), status.FromDecision(decision, candidate, time.Now()), format)
}
