package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

// KeysOptions holds flags for the keys command.
type KeysOptions struct {
	*RootOptions
	Index  string // encode index values instead of a primary key
	Decode string // hex key to decode
}

// KeyResult describes one encoded key, or the range of a key prefix.
type KeyResult struct {
	Key string `json:"key"`
	Hex string `json:"hex,omitempty"`

	// Lo and Hi bound every key starting with a partial key.
	Lo string `json:"lo,omitempty"`
	Hi string `json:"hi,omitempty"`
}

// Text implements Texter.
func (r KeyResult) Text() string {
	if r.Hex != "" {
		return fmt.Sprintf("%s\t%s\n", r.Key, r.Hex)
	}
	return fmt.Sprintf("%s\tlo=%s hi=%s\n", r.Key, r.Lo, r.Hi)
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keys [value...]",
		Short: "Show the ordered byte encoding of a key",
		Long: `Encode primary key (or, with --index, index) values of the fixture's entity
as stored keys, in hex. Values are given in primary key field order; fewer
values than key fields print the range covering that prefix.

With --decode, print the key a hex string encodes.

Examples:
  kvq keys -f products.cue 3
  kvq keys -f orders.cue 1
  kvq keys -f products.cue --index by_level 2
  kvq keys --decode "$(kvq keys -f products.cue 3 --format json | jq -r .data.hex)"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Index, "index", "", "encode values of this index")
	cmd.Flags().StringVar(&opts.Decode, "decode", "", "decode a hex-encoded key")
	return cmd
}

func runKeys(opts *KeysOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	if opts.Decode != "" {
		res, err := decodeKey(opts.Decode)
		if err != nil {
			_ = formatter.Error(ErrCodeBadArgument, err.Error(), nil)
			return WrapExitError(ExitFailure, "decode failed", err)
		}
		return formatter.Success(res)
	}

	fx, err := LoadFixture(opts.Fixture)
	if err != nil {
		return reportError(formatter, err)
	}
	res, err := encodeKey(fx.Schema, opts.Index, args)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitFailure, "encode failed", err)
	}
	return formatter.Success(res)
}

func decodeKey(s string) (KeyResult, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return KeyResult{}, fmt.Errorf("invalid hex: %w", err)
	}
	k, err := keys.DecodeDataKey(b)
	if err != nil {
		return KeyResult{}, err
	}
	return KeyResult{Key: k.String(), Hex: hex.EncodeToString(b)}, nil
}

// encodeKey parses args against the key fields of the primary key or the
// named index.
func encodeKey(s *schema.Schema, indexName string, args []string) (KeyResult, error) {
	path, fields := s.Path(), s.PrimaryKey
	if indexName != "" {
		idx, ok := s.Index(indexName)
		if !ok {
			return KeyResult{}, fmt.Errorf("unknown index %q", indexName)
		}
		path, fields = s.IndexPath(idx), idx.Fields
	}
	if len(args) > len(fields) {
		return KeyResult{}, fmt.Errorf("%d values for %d key fields", len(args), len(fields))
	}

	comps := make([]keys.IndexValue, len(args))
	for i, arg := range args {
		f, _ := s.Field(fields[i])
		comp, err := parseComponent(f, arg)
		if err != nil {
			return KeyResult{}, err
		}
		comps[i] = comp
	}

	k := keys.IndexKey{Path: path, Components: comps}
	if len(comps) == len(fields) && indexName == "" {
		return KeyResult{Key: k.String(), Hex: hex.EncodeToString(k.Encode())}, nil
	}
	lo, hi := keys.PrefixRange(path, comps)
	return KeyResult{Key: k.String(), Lo: hex.EncodeToString(lo), Hi: hex.EncodeToString(hi)}, nil
}

// parseComponent reads arg as a YAML scalar, so 3 is a number and a UUID is
// a string, then types it as field f.
func parseComponent(f schema.Field, arg string) (keys.IndexValue, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(arg), &raw); err != nil {
		raw = arg
	}
	v, err := value.Parse(f.Kind, raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	comp, ok := keys.FromValue(v)
	if !ok {
		return nil, fmt.Errorf("field %q: %s cannot be a key component", f.Name, v.Kind())
	}
	return comp, nil
}
