package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sql2rest/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Update bool   // rewrite expectations from actual output
	Filter string // case filter (glob pattern)
}

// CheckResult holds the overall check result.
type CheckResult struct {
	Suites  []*harness.Result `json:"suites"`
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Total   int               `json:"total"`
	Updated []string          `json:"updated,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <cases-dir>",
		Short: "Run conformance case files",
		Long: `Run every YAML case file in a directory through the translator and
compare the HTTP and supabase-js output with the recorded expectations.

Cases always run with the default client and print width so that case
files stay portable; the config file does not apply.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, malformed case files, etc.)

Examples:
  sql2rest check ./testdata/cases
  sql2rest check ./testdata/cases --filter "join*"
  sql2rest check ./testdata/cases --update
  sql2rest check ./testdata/cases --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite case expectations from actual output")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runCheck(opts *CheckOptions, casesDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if _, err := os.Stat(casesDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("cases directory not found: %s", casesDir))
	}

	suites, err := harness.LoadSuites(casesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load case files", err)
	}

	h := harness.New(harness.WithLogger(opts.logger()))
	result := CheckResult{Suites: []*harness.Result{}}

	for _, suite := range suites {
		selected, err := suite.Filter(opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid filter", err)
		}
		if len(selected.Cases) == 0 {
			continue
		}

		res := h.Run(ctx, selected)

		if opts.Update && harness.Update(suite, res) {
			if err := suite.Save(); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to update %s", suite.Path), err)
			}
			result.Updated = append(result.Updated, suite.Path)
			if opts.Format != "json" {
				fmt.Fprintf(w, "✓ %s (expectations updated)\n", suite.Path)
			}

			// Report against the rewritten expectations.
			selected, _ = suite.Filter(opts.Filter)
			res = h.Run(ctx, selected)
		}

		result.Suites = append(result.Suites, res)
		for _, cr := range res.Cases {
			result.Total++
			if cr.Pass {
				result.Passed++
			} else {
				result.Failed++
			}
			if opts.Format != "json" {
				printCaseResult(cmd, suite.Name, cr)
			}
		}
	}

	if opts.Format == "json" {
		return outputCheckJSON(opts.formatter(cmd), result)
	}
	return outputCheckText(cmd, result)
}

func printCaseResult(cmd *cobra.Command, suite string, cr harness.CaseResult) {
	w := cmd.OutOrStdout()
	if cr.Pass {
		fmt.Fprintf(w, "✓ %s/%s\n", suite, cr.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s/%s\n", suite, cr.Name)
	for _, e := range cr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputCheckJSON outputs the check result as JSON.
func outputCheckJSON(f *OutputFormatter, result CheckResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}

	msg := fmt.Sprintf("%d case(s) failed", result.Failed)
	return f.Failure(result, CLIError{Code: ErrCodeCheckFailed, Message: msg}, nil)
}

// outputCheckText outputs the check summary as text.
func outputCheckText(cmd *cobra.Command, result CheckResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No cases found.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return reportedError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed), nil)
	}

	fmt.Fprintln(w, "✓ All cases passed")
	return nil
}
