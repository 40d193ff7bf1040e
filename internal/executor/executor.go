package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/plan"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/store"
)

// Decoder turns stored row bytes into an entity.
type Decoder[E any] func(key keys.DataKey, data []byte) (E, error)

// RecordDecoder decodes rows as schema records.
func RecordDecoder(s *schema.Schema) Decoder[schema.Record] {
	return func(_ keys.DataKey, data []byte) (schema.Record, error) {
		return s.DecodeRecord(data)
	}
}

// Row is one loaded entity and its key.
type Row[E any] struct {
	Key    keys.DataKey
	Entity E
}

// Page selects a window of results. A negative Limit means no limit; a
// negative Offset counts as zero.
type Page struct {
	Offset int
	Limit  int
}

// All is the page with no offset and no limit.
var All = Page{Limit: -1}

// Bounds returns the saturated [start, end) window over total items.
func (p Page) Bounds(total int) (start, end int) {
	start = min(max(p.Offset, 0), total)
	end = total
	if p.Limit >= 0 && p.Limit < total-start {
		end = start + p.Limit
	}
	return start, end
}

// Option configures a Context.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger for plan execution diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Context executes plans for one entity against one registered store.
type Context[E any] struct {
	registry  *store.Registry
	storeName string
	schema    *schema.Schema
	decode    Decoder[E]
	logger    *slog.Logger
}

// New returns a Context reading entity s from the store registered as
// storeName.
func New[E any](reg *store.Registry, storeName string, s *schema.Schema, decode Decoder[E], opts ...Option) *Context[E] {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Context[E]{
		registry:  reg,
		storeName: storeName,
		schema:    s,
		decode:    decode,
		logger:    cfg.logger,
	}
}

// Schema returns the entity schema the context reads.
func (c *Context[E]) Schema() *schema.Schema {
	return c.schema
}

// Logger returns the logger the context reports to.
func (c *Context[E]) Logger() *slog.Logger {
	return c.logger
}

// CandidatesFromPlan returns the data keys a plan selects, without loading
// rows. Keys plans return their list as given.
func (c *Context[E]) CandidatesFromPlan(ctx context.Context, p plan.Plan) ([]keys.DataKey, error) {
	var out []keys.DataKey
	err := c.registry.WithStore(ctx, c.storeName, func(ctx context.Context, ds store.DataStore) error {
		switch x := p.(type) {
		case plan.Keys:
			out = append([]keys.DataKey(nil), x.Keys...)
			return nil
		case plan.Range:
			return c.scanKeys(ctx, ds, x.Lo.Encode(), x.Hi.Encode(), &out)
		case plan.FullScan:
			return c.scanKeys(ctx, ds, c.schema.LowerBound(), c.schema.UpperBound(), &out)
		case plan.Index:
			ks, err := store.NewIndexStore(c.schema, ds).ResolveDataValues(ctx, x.Index, x.Values)
			out = ks
			return err
		}
		return fmt.Errorf("unknown plan %T", p)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("candidates resolved",
		"entity", c.schema.Entity,
		"plan", plan.Describe(p),
		"count", len(out))
	return out, nil
}

// RowsFromPlan loads every row a plan selects.
func (c *Context[E]) RowsFromPlan(ctx context.Context, p plan.Plan) ([]Row[E], error) {
	return c.RowsFromPlanWithPagination(ctx, p, All)
}

// RowsFromPlanWithPagination loads the rows of page, applying offset and limit
// before rows are loaded.
func (c *Context[E]) RowsFromPlanWithPagination(ctx context.Context, p plan.Plan, page Page) ([]Row[E], error) {
	var out []Row[E]
	err := c.registry.WithStore(ctx, c.storeName, func(ctx context.Context, ds store.DataStore) error {
		var err error
		switch x := p.(type) {
		case plan.Keys:
			out, err = c.loadKeys(ctx, ds, x.Keys, page)
		case plan.Range:
			out, err = c.scanRows(ctx, ds, x.Lo.Encode(), x.Hi.Encode(), page)
		case plan.FullScan:
			out, err = c.scanRows(ctx, ds, c.schema.LowerBound(), c.schema.UpperBound(), page)
		case plan.Index:
			var ks []keys.DataKey
			ks, err = store.NewIndexStore(c.schema, ds).ResolveDataValues(ctx, x.Index, x.Values)
			if err == nil {
				out, err = c.loadKeys(ctx, ds, ks, page)
			}
		default:
			err = fmt.Errorf("unknown plan %T", p)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("rows loaded",
		"entity", c.schema.Entity,
		"plan", plan.Describe(p),
		"offset", page.Offset,
		"limit", page.Limit,
		"count", len(out))
	return out, nil
}

// DeserializeRows decodes raw entries into rows. The first entry that fails
// to decode fails the call.
func (c *Context[E]) DeserializeRows(entries []store.Entry) ([]Row[E], error) {
	out := make([]Row[E], 0, len(entries))
	for _, e := range entries {
		row, err := c.deserialize(e)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *Context[E]) deserialize(e store.Entry) (Row[E], error) {
	dk, err := keys.DecodeDataKey(e.Key)
	if err != nil {
		return Row[E]{}, &DecodeError{Key: e.Key, Err: err}
	}
	ent, err := c.decode(dk, e.Value)
	if err != nil {
		return Row[E]{}, &DecodeError{Key: e.Key, Err: err}
	}
	return Row[E]{Key: dk, Entity: ent}, nil
}

func (c *Context[E]) loadKeys(ctx context.Context, ds store.DataStore, ks []keys.DataKey, page Page) ([]Row[E], error) {
	start, end := page.Bounds(len(ks))
	if start >= end {
		return nil, nil
	}
	out := make([]Row[E], 0, end-start)
	for _, k := range ks[start:end] {
		raw := k.Encode()
		data, err := ds.Get(ctx, raw)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", k, err)
		}
		row, err := c.deserialize(store.Entry{Key: raw, Value: data})
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *Context[E]) scanRows(ctx context.Context, ds store.DataStore, lo, hi []byte, page Page) ([]Row[E], error) {
	if page.Limit == 0 {
		return nil, nil
	}
	skip := max(page.Offset, 0)
	var out []Row[E]
	for e, err := range ds.Range(ctx, lo, hi) {
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if skip > 0 {
			skip--
			continue
		}
		row, err := c.deserialize(e)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

func (c *Context[E]) scanKeys(ctx context.Context, ds store.DataStore, lo, hi []byte, out *[]keys.DataKey) error {
	for e, err := range ds.Range(ctx, lo, hi) {
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		dk, err := keys.DecodeDataKey(e.Key)
		if err != nil {
			return &DecodeError{Key: e.Key, Err: err}
		}
		*out = append(*out, dk)
	}
	return nil
}
