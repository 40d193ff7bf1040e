package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/kvquery/internal/executor"
	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/store"
)

// storeName is the registry name the CLI mounts its store under.
const storeName = "main"

// source is an opened store plus the executor reading the fixture's entity
// from it.
type source struct {
	fixture *Fixture
	store   store.MutableStore
	exec    *executor.Context[schema.Record]
	close   func() error
}

// openSource loads the fixture and opens the store queries read from. With
// --db the SQLite database must already exist; without it an in-memory store
// is seeded with the fixture rows.
func openSource(ctx context.Context, opts *RootOptions) (*source, error) {
	fx, err := LoadFixture(opts.Fixture)
	if err != nil {
		return nil, err
	}
	log := opts.logger()

	var ms store.MutableStore
	closeFn := func() error { return nil }
	if opts.DB != "" {
		if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
		}
		st, err := store.Open(opts.DB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		ms, closeFn = st, st.Close
	} else {
		mem := store.NewMemory()
		for i, r := range fx.Rows {
			if err := store.Insert(ctx, mem, fx.Schema, r); err != nil {
				return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows[%d]: %v", i, err)}
			}
		}
		ms = mem
		log.Debug("seeded memory store", "entity", fx.Schema.Entity, "rows", len(fx.Rows))
	}

	reg := store.NewRegistry(store.WithRegistryLogger(log))
	if err := reg.Register(storeName, ms); err != nil {
		closeFn()
		return nil, err
	}
	return &source{
		fixture: fx,
		store:   ms,
		exec:    executor.New(reg, storeName, fx.Schema, executor.RecordDecoder(fx.Schema), executor.WithLogger(log)),
		close:   closeFn,
	}, nil
}

// reportError prints err through the formatter and returns the ExitError
// the command should fail with.
func reportError(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = f.Error(ErrCodeGeneric, exitErr.Error(), nil)
		return exitErr
	}

	var ve *filter.ValidationError
	if errors.As(err, &ve) {
		_ = f.Error(string(ve.Code), ve.Message, map[string]string{
			"field": ve.Field,
			"cmp":   ve.Cmp.String(),
		})
		return WrapExitError(ExitFailure, "query rejected", err)
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "fixture error", err)
	}

	if executor.IsDecodeError(err) {
		_ = f.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitFailure, "decode failed", err)
	}

	_ = f.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitFailure, "command failed", err)
}
