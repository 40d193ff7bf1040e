package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/kvquery/internal/store"
)

// LoadResult summarizes a load.
type LoadResult struct {
	Entity string `json:"entity"`
	Rows   int    `json:"rows"`
	DB     string `json:"db"`
}

// Text implements Texter.
func (r LoadResult) Text() string {
	return fmt.Sprintf("Loaded %d %s row(s) into %s\n", r.Rows, r.Entity, r.DB)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load fixture rows into a SQLite database",
		Long: `Load the rows of a CUE fixture into a SQLite database, writing data and
secondary index entries in one transaction: a rejected row leaves the database
unchanged. Rows replace existing rows with the same primary key. The database
is created if it does not exist.

Examples:
  kvq load --fixture products.cue --db products.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), rootOpts, cmd)
		},
	}
	return cmd
}

func runLoad(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd.OutOrStdout())

	if opts.DB == "" {
		return reportError(formatter, NewExitError(ExitCommandError, "load requires --db"))
	}
	fx, err := LoadFixture(opts.Fixture)
	if err != nil {
		return reportError(formatter, err)
	}
	opts.logger().Debug("fixture read", "path", opts.Fixture, "files", fx.FileCount, "rows", len(fx.Rows))

	st, err := store.Open(opts.DB)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	err = st.Update(ctx, func(m store.MutableStore) error {
		for i, r := range fx.Rows {
			if err := store.Insert(ctx, m, fx.Schema, r); err != nil {
				return fmt.Errorf("rows[%d]: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "load failed", err)
	}
	opts.logger().Info("fixture loaded", "entity", fx.Schema.Entity, "rows", len(fx.Rows), "db", opts.DB)

	return formatter.Success(LoadResult{Entity: fx.Schema.Entity, Rows: len(fx.Rows), DB: opts.DB})
}
