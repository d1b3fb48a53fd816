package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	t := NewTable(5)
	t.Set("run", Ints{1, 2, 3, 4, 5})
	t.Set("pt", Floats{10, 20, 30, 40, 50})
	t.Set("trig", Bools{true, false, true, false, true})
	t.Set("Lepton_pt", FloatArrays{{1}, {2, 2}, {3}, {4, 4}, {5}})
	t.Set("FSLeptons", IntArrays{{0, 1}, {0, 1}, {1, 0}, {0, 1}, {0, 1}})
	t.Set("flavor", Strings{"G", "L", "J", "G", "G"})
	return t
}

func TestFilterTakesMaskRows(t *testing.T) {
	tbl := sampleTable()
	mask := Mask{0, 2, 4}
	out, err := Select(tbl, "pass_cuts", mask, nil)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.Equal(t, 3, out.Len())

	for _, name := range tbl.Branches() {
		orig, err := tbl.Column(name)
		require.NoError(t, err)
		got, err := out.Column(name)
		require.NoError(t, err)
		assert.Equal(t, orig.Take(mask), got, name)
	}
	pt, err := out.Floats("pt")
	require.NoError(t, err)
	assert.Equal(t, Floats{10, 30, 50}, pt)

	_, ok := out.Mask("pass_cuts")
	assert.False(t, ok, "consumed mask is dropped")
}

func TestFilterFullMaskIsIdentity(t *testing.T) {
	tbl := sampleTable()
	out, err := Select(tbl, "all", FullMask(tbl.Len()), nil)
	require.NoError(t, err)
	assert.Equal(t, tbl.Len(), out.Len())
	for _, name := range tbl.Branches() {
		a, _ := tbl.Column(name)
		b, _ := out.Column(name)
		assert.Equal(t, a, b, name)
	}
}

func TestFilterEmptyMask(t *testing.T) {
	tbl := sampleTable()
	out, err := Select(tbl, "pass_cuts", Mask{}, nil)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrEmptySelection))
	assert.Equal(t, 5, tbl.Len())
}

func TestFilterProtectedBranches(t *testing.T) {
	tbl := sampleTable()
	tbl.Set("FS_pt", Floats{100, 300})
	out, err := Select(tbl, "pass_cuts", Mask{0, 2}, []string{"FS_pt"})
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	fs, err := out.Floats("FS_pt")
	require.NoError(t, err)
	assert.Equal(t, Floats{100, 300}, fs)
}

func TestFilterRejectsMisalignedProtectedBranch(t *testing.T) {
	tbl := sampleTable()
	tbl.Set("FS_pt", Floats{100, 300, 500})
	_, err := Select(tbl, "pass_cuts", Mask{0, 2}, []string{"FS_pt"})
	var mis *MisalignedError
	require.True(t, errors.As(err, &mis))
	assert.Equal(t, "FS_pt", mis.Branch)
}

func TestFilterRemapsOtherMasks(t *testing.T) {
	tbl := sampleTable()
	tbl.SetMask("pass_1j_cuts", Mask{1, 2, 4})
	out, err := Select(tbl, "pass_cuts", Mask{0, 2, 3, 4}, nil)
	require.NoError(t, err)
	m, ok := out.Mask("pass_1j_cuts")
	require.True(t, ok)
	assert.Equal(t, Mask{1, 3}, m)
}

func TestFilterMissingMask(t *testing.T) {
	_, err := Filter(sampleTable(), "nope", nil)
	assert.True(t, errors.Is(err, ErrMissingBranch))
}

func TestTypedAccessors(t *testing.T) {
	tbl := sampleTable()
	_, err := tbl.Floats("run")
	assert.True(t, errors.Is(err, ErrBranchType))
	_, err = tbl.Ints("missing")
	assert.True(t, errors.Is(err, ErrMissingBranch))
}

func TestConcat(t *testing.T) {
	a, b := sampleTable(), sampleTable()
	out, err := a.Concat(b)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Len())
	require.NoError(t, out.Validate())

	b.Delete("pt")
	b.Set("other", Floats{1, 2, 3, 4, 5})
	_, err = a.Concat(b)
	assert.Error(t, err)
}

func TestViews(t *testing.T) {
	tbl := sampleTable()
	gen := NewView(tbl, Mask{0, 3, 4, 99})
	jet := NewView(tbl, Mask{2})
	assert.Equal(t, 3, gen.Len())

	g, err := gen.Materialize(nil)
	require.NoError(t, err)
	j, err := jet.Materialize(nil)
	require.NoError(t, err)

	run, _ := g.Ints("run")
	assert.Equal(t, Ints{1, 4, 5}, run)
	run, _ = j.Ints("run")
	assert.Equal(t, Ints{3}, run)
	assert.Equal(t, 5, tbl.Len(), "base table is untouched")

	_, err = NewView(tbl, nil).Materialize(nil)
	assert.True(t, errors.Is(err, ErrEmptySelection))
}

func TestMaskAlgebra(t *testing.T) {
	assert.Equal(t, Mask{1, 2, 5}, MaskOf(5, 1, 2, 1))
	assert.Equal(t, Mask{1, 2, 3, 4}, Union(Mask{1, 3}, Mask{2, 4}, Mask{}))
	assert.Equal(t, Mask{3}, Intersect(Mask{1, 3}, Mask{3, 4}))
	assert.True(t, Mask{1, 3}.Contains(3))
	assert.False(t, Mask{1, 3}.Contains(2))
}

func TestAsFloats(t *testing.T) {
	f, err := AsFloats(Ints{1, 2})
	require.NoError(t, err)
	assert.Equal(t, Floats{1, 2}, f)
	f, err = AsFloats(Bools{true, false})
	require.NoError(t, err)
	assert.Equal(t, Floats{1, 0}, f)
	_, err = AsFloats(FloatArrays{{1}})
	assert.Error(t, err)
}
