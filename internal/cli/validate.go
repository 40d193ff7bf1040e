package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/plan"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Filter string   `json:"filter"`
	Fields []string `json:"fields,omitempty"`
	Plan   string   `json:"plan"`
}

// Text implements Texter.
func (r ValidationResult) Text() string {
	return "✓ Filter valid: " + r.Filter + "\n  plan: " + r.Plan + "\n"
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a filter document against the fixture schema",
		Long: `Check a filter document and sort terms against the fixture's schema
without reading any rows, and show the plan the query would use.

Rejections use the query validation codes INVALID_FILTER_FIELD and
INVALID_FILTER_VALUE and exit with code 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runValidate(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	fx, err := LoadFixture(opts.Fixture)
	if err != nil {
		return reportError(formatter, err)
	}
	q, err := opts.build(fx.Schema.Entity)
	if err != nil {
		return reportError(formatter, err)
	}

	expr, err := q.Validate(fx.Schema)
	if err != nil {
		return reportError(formatter, err)
	}

	return formatter.Success(ValidationResult{
		Valid:  true,
		Filter: filter.String(expr),
		Fields: filter.Fields(expr),
		Plan:   plan.Describe(plan.For(fx.Schema, expr)),
	})
}
