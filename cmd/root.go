package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/namesake/internal/config"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
)

// AppName names the configuration directory and the environment prefix.
const AppName = "namesake"

var (
	cfgFile string
	// set by initConfig when an explicit or discovered file cannot be read
	configReadErr error
)

// Keys bound to NAMESAKE_* variables. Unmarshal only sees keys viper
// already knows about, so AutomaticEnv alone is not enough.
var envKeys = []string{
	"enabled",
	"highlight",
	"theme",
	"block_until_done",
	"allowlist",
	"blocklist",
	"default_allow_mode",
	"log.level",
	"log.format",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "namesake",
	Short: "Replace dead names with chosen names in HTML documents",
	Long: `namesake rewrites HTML so that a configured list of dead names is shown
as the chosen names instead. Replacements are marked so they can be reverted
exactly, and pages can be scoped with an allowlist and a blocklist.

Quick Start:
  namesake rewrite site/*.html            Rewrite documents in place
  namesake rewrite -o out/ site/*.html    Write rewritten copies to out/
  namesake revert site/*.html             Restore the original text
  namesake scope https://example.com/     Show whether a site is rewritten
  namesake watch site/                    Rewrite documents as they change
  namesake config validate                Check the configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// printError writes err followed by the suggestions of any validation
// errors it wraps.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if details := errors.FormatErrorWithSuggestions(err); details != err.Error() {
		fmt.Fprintln(w, details)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .namesake.yml, then $XDG_CONFIG_HOME/namesake/config.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	AddFlagValidation(rootCmd, "log-level", ValidateLogLevel)
}

func initConfig() {
	_ = godotenv.Load()
	configReadErr = nil

	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv("NAMESAKE_CONFIG_FILE") != "":
		viper.SetConfigFile(os.Getenv("NAMESAKE_CONFIG_FILE"))
	default:
		if path := defaultConfigFile(); path != "" {
			viper.SetConfigFile(path)
		}
	}

	viper.SetEnvPrefix(strings.ToUpper(AppName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
	if flag := rootCmd.PersistentFlags().Lookup("log-level"); flag != nil {
		_ = viper.BindPFlag("log.level", flag)
	}

	if viper.ConfigFileUsed() == "" {
		return
	}
	if err := viper.ReadInConfig(); err != nil {
		configReadErr = errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot read configuration").
			WithFile(viper.ConfigFileUsed())
	}
}

// defaultConfigFile returns the first configuration file that exists.
func defaultConfigFile() string {
	candidates := []string{
		".namesake.yml",
		".namesake.yaml",
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// loadConfig resolves the configuration and builds the logger it asks for.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	if configReadErr != nil {
		return nil, nil, configReadErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg, cmd)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "using config file", "path", used)
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config, cmd *cobra.Command) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
