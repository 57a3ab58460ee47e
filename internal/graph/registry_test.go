package graph

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/weldgraph/internal/ir"
)

func TestRegistry_InternSameValueSameName(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Intern(ir.I64(5))
	require.NoError(t, err)
	b, err := reg.Intern(ir.I64(5))
	require.NoError(t, err)

	assert.Equal(t, "_inp0", a)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_InternDistinctValuesDistinctNames(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Intern(ir.I64(5))
	require.NoError(t, err)
	b, err := reg.Intern(ir.I32(5))
	require.NoError(t, err)
	c, err := reg.Intern(ir.Int64s(5))
	require.NoError(t, err)

	assert.Equal(t, []string{"_inp0", "_inp1", "_inp2"}, []string{a, b, c})
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_InternStructurallyEqualComposites(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Intern(ir.NewStruct(ir.I64(1), ir.Str("x")))
	require.NoError(t, err)
	b, err := reg.Intern(ir.NewStruct(ir.I64(1), ir.Str("x")))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRegistry_InternRejectsNil(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Intern(nil)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Lookup(ir.F64(1.5))
	assert.False(t, ok)

	name, err := reg.Intern(ir.F64(1.5))
	require.NoError(t, err)

	got, ok := reg.Lookup(ir.F64(1.5))
	assert.True(t, ok)
	assert.Equal(t, name, got)
}

func TestRegistry_EntriesInNameOrder(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 12; i++ {
		_, err := reg.Intern(ir.I64(int64(i)))
		require.NoError(t, err)
	}

	entries := reg.Entries()
	require.Len(t, entries, 12)
	assert.Equal(t, "_inp0", entries[0].Name)
	assert.Equal(t, "_inp2", entries[2].Name)
	assert.Equal(t, "_inp11", entries[11].Name)
	assert.Equal(t, "i64 11", entries[11].Canonical)
}

func TestRegistry_ConcurrentInternKeepsUniqueness(t *testing.T) {
	reg := NewRegistry()

	const workers = 8
	const values = 50

	results := make([][]string, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			names := make([]string, values)
			for i := 0; i < values; i++ {
				name, err := reg.Intern(ir.I64(int64(i)))
				if err != nil {
					return err
				}
				names[i] = name
			}
			results[w] = names
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Every worker saw the same name for the same value.
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
	assert.Equal(t, values, reg.Len())
}

func TestRegistry_DedupProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("equal canonical text iff equal name", prop.ForAll(
		func(a, b int64) bool {
			reg := NewRegistry()
			na, err := reg.Intern(ir.I64(a))
			if err != nil {
				return false
			}
			nb, err := reg.Intern(ir.I64(b))
			if err != nil {
				return false
			}
			return (a == b) == (na == nb)
		},
		gen.Int64Range(-3, 3),
		gen.Int64Range(-3, 3),
	))

	properties.Property("re-interning never allocates", prop.ForAll(
		func(xs []int64) bool {
			reg := NewRegistry()
			first := make([]string, len(xs))
			for i, x := range xs {
				name, err := reg.Intern(ir.I64(x))
				if err != nil {
					return false
				}
				first[i] = name
			}
			size := reg.Len()
			for i, x := range xs {
				name, err := reg.Intern(ir.I64(x))
				if err != nil || name != first[i] {
					return false
				}
			}
			return reg.Len() == size
		},
		gen.SliceOf(gen.Int64Range(0, 20)),
	))

	properties.TestingRun(t)
}

func ExampleRegistry_Intern() {
	reg := NewRegistry()
	a, _ := reg.Intern(ir.I64(5))
	b, _ := reg.Intern(ir.Float64s(1, 2))
	c, _ := reg.Intern(ir.I64(5))
	fmt.Println(a, b, c)
	// Output: _inp0 _inp1 _inp0
}
