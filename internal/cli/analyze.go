package cli

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"triage-assistant/internal/domain"
	"triage-assistant/internal/usecase"
)

func newAnalyzeCmd(load Loader) *cobra.Command {
	var outputFormat string
	cmd := &cobra.Command{
		Use:   "analyze SYMPTOMS",
		Short: "Analyze a symptom description once",
		Long: `Send a symptom description with optional clinical context and print the
differential analysis.

Examples:
  # Plain description
  triage analyze "sore throat and fever for two days"

  # With context from flags and a file
  triage analyze "chest tightness when climbing stairs" --age 58 --smoking current --context ctx.yaml

  # Machine readable
  triage analyze "itchy rash on both forearms" -o json`,
		Args: cobra.ArbitraryArgs,
	}
	ctxFlags := bindContextFlags(cmd)
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatHuman, "Output format (human, json, yaml)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := validFormat(outputFormat); err != nil {
			return err
		}
		clinical, err := ctxFlags.resolve(cmd)
		if err != nil {
			return err
		}
		rt, err := load(cmd.Context())
		if err != nil {
			return err
		}

		in := usecase.SubmitInput{Symptoms: strings.Join(args, " "), Context: clinical}
		ctx, cancel := rt.withTimeout(cmd.Context())
		defer cancel()

		var sess domain.Session
		err = pending(cmd.ErrOrStderr(), " Analyzing symptoms...", func() error {
			sess, err = rt.Service.Submit(ctx, sess, in)
			return err
		})
		if err != nil {
			return errors.New(describeError(err))
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, sess)
	}
	return cmd
}

// pending shows a spinner on w while fn runs.
func pending(w io.Writer, suffix string, fn func() error) error {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	s.Start()
	err := fn()
	s.Stop()
	return err
}
