package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/plan"
	"github.com/roach88/kvquery/internal/query"
)

// QueryOptions holds the flags shared by query and validate.
type QueryOptions struct {
	*RootOptions
	Filter     string   // filter document, YAML or JSON
	FilterFile string   // path to a filter document
	OrderBy    []string // field[:asc|desc]
	Offset     int
	Limit      int
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Filter, "filter", "", "filter document (YAML or JSON)")
	cmd.Flags().StringVar(&o.FilterFile, "filter-file", "", "read the filter document from a file")
	cmd.Flags().StringSliceVar(&o.OrderBy, "order-by", nil, "sort term field[:asc|desc], repeatable")
	cmd.Flags().IntVar(&o.Offset, "offset", 0, "skip this many matching rows")
	cmd.Flags().IntVar(&o.Limit, "limit", -1, "return at most this many rows (negative: no limit)")
}

// build turns the flags into a query over entity.
func (o *QueryOptions) build(entity string) (query.Query, error) {
	doc := o.Filter
	if o.FilterFile != "" {
		if doc != "" {
			return query.Query{}, &LoadError{Code: ErrCodeBadArgument, Message: "--filter and --filter-file are mutually exclusive"}
		}
		data, err := os.ReadFile(o.FilterFile)
		if err != nil {
			return query.Query{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading filter file: %v", err)}
		}
		doc = string(data)
	}

	q := query.New(entity)
	if strings.TrimSpace(doc) != "" {
		expr, err := filter.ParseYAML([]byte(doc))
		if err != nil {
			return query.Query{}, &LoadError{Code: ErrCodeBadDocument, Message: err.Error()}
		}
		q = q.Where(expr)
	}
	for _, term := range o.OrderBy {
		field, dirName, _ := strings.Cut(term, ":")
		dir, err := query.ParseDirection(dirName)
		if err != nil {
			return query.Query{}, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("--order-by %s: %v", term, err)}
		}
		q = q.OrderBy(field, dir)
	}
	return q.Offset(o.Offset).Limit(o.Limit), nil
}

// QueryRow is one result row.
type QueryRow struct {
	Key    string         `json:"key"`
	Record map[string]any `json:"record"`
}

// QueryResult is the output of the query command.
type QueryResult struct {
	Query    string     `json:"query"`
	Plan     string     `json:"plan"`
	Pushdown bool       `json:"pushdown"`
	Rows     []QueryRow `json:"rows"`
}

// Text implements Texter: one row per line, then a count.
func (r QueryResult) Text() string {
	var sb strings.Builder
	for _, row := range r.Rows {
		data, err := json.Marshal(row.Record)
		if err != nil {
			data = []byte(err.Error())
		}
		fmt.Fprintf(&sb, "%s\t%s\n", row.Key, data)
	}
	fmt.Fprintf(&sb, "%d row(s)\n", len(r.Rows))
	return sb.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a filtered, ordered, paginated query",
		Long: `Run a query against the fixture's entity. Rows are read from --db when
given, otherwise from an in-memory store seeded with the fixture rows.

The filter is a document such as:
  {and: [{field: score, cmp: gt, value: 80.0}, {field: level, cmp: gte, value: 2}]}

Exit codes:
  0 - Query ran (an empty result is not an error)
  1 - Query rejected by validation, or a stored row failed to decode
  2 - Command error (fixture or database not found, etc.)

Examples:
  kvq query -f products.cue --filter '{field: category, cmp: eq, value: A}'
  kvq query -f products.cue --db products.db --order-by level:desc --limit 5
  kvq query -f products.cue --filter-file filter.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, cmd)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	src, err := openSource(ctx, opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	defer src.close()

	q, err := opts.build(src.fixture.Schema.Entity)
	if err != nil {
		return reportError(formatter, err)
	}

	res, err := query.Load(ctx, src.exec, q)
	if err != nil {
		return reportError(formatter, err)
	}

	out := QueryResult{
		Query:    q.String(),
		Plan:     plan.Describe(res.Plan),
		Pushdown: res.Pushdown,
		Rows:     make([]QueryRow, 0, len(res.Rows)),
	}
	for _, row := range res.Rows {
		out.Rows = append(out.Rows, QueryRow{Key: row.Key.String(), Record: row.Entity.ToNative()})
	}
	opts.logger().Debug("query returned", "plan", out.Plan, "rows", len(out.Rows))
	return formatter.Success(out)
}
