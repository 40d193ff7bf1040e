package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/kvquery/internal/executor"
	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/query"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/store"
)

const storeName = "scenario"

// Option configures Run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger routes store and executor diagnostics to l. Scenarios run
// silently by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store for isolation:
//  1. Seed the rows through store.Insert so index entries are written
//  2. Run every query through query.Load
//  3. Check each outcome against its expect clause
//
// The returned error is reserved for scenarios that cannot run at all, such
// as a row that does not fit the schema. Failed expectations are reported in
// Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}
	ctx := context.Background()

	s := &scenario.Schema
	if err := s.Resolve(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	ms, closeStore, err := openBackend(scenario.Backend)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	for i, raw := range scenario.Rows {
		r, err := s.RecordFromNative(raw)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: rows[%d]: %w", scenario.Name, i, err)
		}
		if err := store.Insert(ctx, ms, s, r); err != nil {
			return nil, fmt.Errorf("scenario %s: rows[%d]: %w", scenario.Name, i, err)
		}
	}

	reg := store.NewRegistry(store.WithRegistryLogger(cfg.logger))
	if err := reg.Register(storeName, ms); err != nil {
		return nil, err
	}
	exec := executor.New(reg, storeName, s, executor.RecordDecoder(s), executor.WithLogger(cfg.logger))

	result := NewResult()
	for _, qc := range scenario.Queries {
		q, err := qc.Build(s.Entity)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		outcome := runQuery(ctx, exec, qc.Name, q)
		result.Queries = append(result.Queries, outcome)

		for _, aerr := range checkExpect(s, qc, outcome) {
			result.AddError(aerr.Error())
		}
	}

	cfg.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"queries", len(result.Queries),
		"pass", result.Pass)
	return result, nil
}

func openBackend(name string) (store.MutableStore, func(), error) {
	switch name {
	case "", BackendMemory:
		return store.NewMemory(), func() {}, nil
	case BackendSQLite:
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		return st, func() { st.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", name)
}

func runQuery(ctx context.Context, exec *executor.Context[schema.Record], name string, q query.Query) QueryOutcome {
	out := QueryOutcome{Name: name, Query: q.String(), Keys: []string{}}

	res, err := query.Load(ctx, exec, q)
	if err != nil {
		out.Error = errorCode(err)
		return out
	}
	out.Plan = PlanKind(res.Plan)
	out.Pushdown = res.Pushdown
	for _, row := range res.Rows {
		out.Keys = append(out.Keys, row.Key.String())
	}
	return out
}

func errorCode(err error) string {
	var ve *filter.ValidationError
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	return err.Error()
}
