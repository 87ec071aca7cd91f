package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/scope"
	"github.com/conneroisu/namesake/internal/status"
)

// AddFlagValidation adds validation for a specific flag. The flag may be
// local or persistent.
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateConcurrency accepts a positive number of documents.
func ValidateConcurrency(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid concurrency: %s", s)
	}
	if n < 1 || n > 256 {
		return fmt.Errorf("concurrency must be between 1 and 256, got %d", n)
	}
	return nil
}

// ValidateFormat accepts the status output formats.
func ValidateFormat(s string) error {
	_, err := status.ParseFormat(s)
	return err
}

// ValidateConfigFormat accepts the formats config show can print.
func ValidateConfigFormat(s string) error {
	switch strings.ToLower(s) {
	case "yaml", "json":
		return nil
	}
	return fmt.Errorf("invalid format %s, must be one of: yaml, json", s)
}

// ValidateLogLevel accepts the levels logging.ParseLevel knows.
func ValidateLogLevel(s string) error {
	_, err := logging.ParseLevel(s)
	return err
}

// ValidateURL accepts anything that has a site identity.
func ValidateURL(s string) error {
	_, err := scope.Candidate(s)
	return err
}

// ValidateFileExists checks that an input file is present.
func ValidateFileExists(filename string) error {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}
	return nil
}

// ValidateDirExists checks that a watched directory is present.
func ValidateDirExists(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// filesArgs wraps a positional argument check with per-file validation.
func filesArgs(validate func(string) error) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		for _, arg := range args {
			if err := validate(arg); err != nil {
				return err
			}
		}
		return nil
	}
}
