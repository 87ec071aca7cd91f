package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/namesake/internal/pipeline"
)

var revertCmd = &cobra.Command{
	Use:   "revert [files...]",
	Short: "Restore the original text of rewritten documents",
	Long: `Remove every replacement marker, cached attribute, recorded title and
injected stylesheet from documents rewritten by namesake. Reverting does not
need the configuration that produced the document. Without files the
document is read from stdin and written to stdout.

Examples:
  namesake revert index.html
  namesake revert -o restored/ out/*.html`,
	Args: filesArgs(ValidateFileExists),
	RunE: runRevert,
}

var (
	revertOutput      string
	revertConcurrency int
)

func init() {
	rootCmd.AddCommand(revertCmd)

	revertCmd.Flags().StringVarP(&revertOutput, "output", "o", "", "directory for reverted documents (default: in place)")
	revertCmd.Flags().IntVarP(&revertConcurrency, "concurrency", "c", pipeline.DefaultConcurrency, "documents reverted in parallel")
	AddFlagValidation(revertCmd, "concurrency", ValidateConcurrency)
}

func runRevert(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(args) == 0 {
		restored, err := pipeline.Revert(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		logger.Info(ctx, "document reverted", "restored", restored)
		return nil
	}

	results, err := pipeline.RevertAll(ctx, pipeline.Jobs(args, revertOutput), revertConcurrency, logger)
	if err != nil {
		return err
	}
	restored := 0
	for _, res := range results {
		restored += res.Restored
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d replacement(s) in %d document(s)\n", restored, len(results)-pipeline.Failed(results))

	if failed := pipeline.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(results))
	}
	return nil
}
