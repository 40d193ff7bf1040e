package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Key)
	}
	return out
}

func TestDataStore_Contract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, k := range []string{"b", "d", "a", "c", "e"} {
				require.NoError(t, s.Put(ctx, []byte(k), []byte("v"+k)))
			}

			t.Run("get", func(t *testing.T) {
				v, err := s.Get(ctx, []byte("c"))
				require.NoError(t, err)
				assert.Equal(t, []byte("vc"), v)

				_, err = s.Get(ctx, []byte("zz"))
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("range is inclusive and ordered", func(t *testing.T) {
				got, err := Collect(s.Range(ctx, []byte("b"), []byte("d")))
				require.NoError(t, err)
				assert.Equal(t, []string{"b", "c", "d"}, keysOf(got))
				assert.Equal(t, []byte("vb"), got[0].Value)
			})

			t.Run("bounds need not exist", func(t *testing.T) {
				got, err := Collect(s.Range(ctx, []byte("bb"), []byte("dd")))
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "d"}, keysOf(got))
			})

			t.Run("inverted range is empty", func(t *testing.T) {
				got, err := Collect(s.Range(ctx, []byte("d"), []byte("b")))
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("early stop", func(t *testing.T) {
				var seen []string
				for e, err := range s.Range(ctx, []byte("a"), []byte("e")) {
					require.NoError(t, err)
					seen = append(seen, string(e.Key))
					if len(seen) == 2 {
						break
					}
				}
				assert.Equal(t, []string{"a", "b"}, seen)

				// The store is usable after an abandoned range.
				_, err := s.Get(ctx, []byte("a"))
				assert.NoError(t, err)
			})

			t.Run("overwrite and delete", func(t *testing.T) {
				require.NoError(t, s.Put(ctx, []byte("c"), []byte("new")))
				v, err := s.Get(ctx, []byte("c"))
				require.NoError(t, err)
				assert.Equal(t, []byte("new"), v)

				require.NoError(t, s.Delete(ctx, []byte("c")))
				require.NoError(t, s.Delete(ctx, []byte("c")))
				_, err = s.Get(ctx, []byte("c"))
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("binary keys sort by bytes", func(t *testing.T) {
				require.NoError(t, s.Put(ctx, []byte{0x00, 0xff}, nil))
				require.NoError(t, s.Put(ctx, []byte{0x00, 0x01}, nil))
				require.NoError(t, s.Put(ctx, []byte{0x00}, nil))
				got, err := Collect(s.Range(ctx, []byte{0x00}, []byte{0x00, 0xff}))
				require.NoError(t, err)
				require.Len(t, got, 3)
				assert.Equal(t, []byte{0x00}, got[0].Key)
				assert.Equal(t, []byte{0x00, 0x01}, got[1].Key)
				assert.Equal(t, []byte{0x00, 0xff}, got[2].Key)
			})
		})
	}
}

func TestMemory_RangeSeesSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, []byte("a"), nil))
	require.NoError(t, m.Put(ctx, []byte("c"), nil))

	var seen []string
	for e, err := range m.Range(ctx, []byte("a"), []byte("z")) {
		require.NoError(t, err)
		seen = append(seen, string(e.Key))
		require.NoError(t, m.Put(ctx, []byte("b"), nil))
	}
	assert.Equal(t, []string{"a", "c"}, seen)
	assert.Equal(t, 3, m.Len())
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put(context.Background(), []byte("a"), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(m.Range(ctx, []byte("a"), []byte("z")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Put(ctx, []byte("b"), nil), context.Canceled)
}
