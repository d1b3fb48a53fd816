package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// ROOTSource reads datasets from ROOT files. FileMap maps a dataset name to
// a file pattern relative to Dir, without the .root suffix.
type ROOTSource struct {
	Dir     string
	FileMap map[string]string
	// Tree defaults to Events.
	Tree string
}

// Files lists the files of a dataset in lexical order.
func (s *ROOTSource) Files(name string) ([]string, error) {
	pattern, ok := s.FileMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: no file pattern for %s", ErrNotFound, name)
	}
	files, err := filepath.Glob(filepath.Join(s.Dir, pattern+".root"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s matches no files", ErrNotFound, filepath.Join(s.Dir, pattern))
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every file of the dataset and concatenates them. sel is
// applied file by file so that only passing events are kept in memory.
func (s *ROOTSource) Load(ctx context.Context, name string, bs []branches.Branch, sel *Selection) (*event.Table, Metadata, error) {
	files, err := s.Files(name)
	if err != nil {
		return nil, Metadata{}, err
	}
	var t *event.Table
	for _, fname := range files {
		if err := ctx.Err(); err != nil {
			return nil, Metadata{}, err
		}
		ft, err := s.readFile(fname, bs)
		if err != nil {
			return nil, Metadata{}, err
		}
		if ft, err = sel.Apply(ft); err != nil {
			return nil, Metadata{}, fmt.Errorf("%s: %w", fname, err)
		}
		slog.Debug("loaded file", "dataset", name, "file", fname, "events", ft.Len())
		if t == nil {
			t = ft
			continue
		}
		if t, err = t.Concat(ft); err != nil {
			return nil, Metadata{}, fmt.Errorf("%s: %w", fname, err)
		}
	}
	meta, err := ExtractMetadata(name, t)
	if err != nil {
		return nil, Metadata{}, err
	}
	slog.Info("loaded dataset", "dataset", name, "files", len(files), "events", t.Len())
	return t, meta, nil
}

func (s *ROOTSource) readFile(fname string, bs []branches.Branch) (*event.Table, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	treeName := s.Tree
	if treeName == "" {
		treeName = "Events"
	}
	obj, err := f.Get(treeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%s: %s is a %T, not a tree", fname, treeName, obj)
	}
	return ReadTree(tree, bs)
}

// ReadTree converts the requested branches of tree into an event table.
func ReadTree(tree rtree.Tree, bs []branches.Branch) (*event.Table, error) {
	byName := make(map[string]rtree.ReadVar)
	for _, rv := range rtree.NewReadVars(tree) {
		byName[rv.Name] = rv
	}

	var (
		rvars []rtree.ReadVar
		cols  []collector
		names []string
	)
	for _, b := range bs {
		rv, ok := byName[string(b)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", event.ErrMissingBranch, b)
		}
		c, err := newCollector(rv.Value)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", b, err)
		}
		rvars = append(rvars, rv)
		cols = append(cols, c)
		names = append(names, string(b))
	}

	n := int(tree.Entries())
	t := event.NewTable(n)
	if len(rvars) > 0 && n > 0 {
		r, err := rtree.NewReader(tree, rvars)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		err = r.Read(func(rtree.RCtx) error {
			for _, c := range cols {
				c.collect()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for i, c := range cols {
		t.Set(names[i], c.column(n))
	}
	return t, nil
}

// collector copies the current entry of one branch into a column.
type collector interface {
	collect()
	column(n int) event.Column
}

type floatCol struct {
	get func() float64
	out event.Floats
}

func (c *floatCol) collect() { c.out = append(c.out, c.get()) }
func (c *floatCol) column(n int) event.Column {
	if c.out == nil {
		return make(event.Floats, 0, n)
	}
	return c.out
}

type intCol struct {
	get func() int64
	out event.Ints
}

func (c *intCol) collect() { c.out = append(c.out, c.get()) }
func (c *intCol) column(n int) event.Column {
	if c.out == nil {
		return make(event.Ints, 0, n)
	}
	return c.out
}

type boolCol struct {
	p   *bool
	out event.Bools
}

func (c *boolCol) collect() { c.out = append(c.out, *c.p) }
func (c *boolCol) column(n int) event.Column {
	if c.out == nil {
		return make(event.Bools, 0, n)
	}
	return c.out
}

type floatArrayCol struct {
	get func() []float64
	out event.FloatArrays
}

func (c *floatArrayCol) collect() { c.out = append(c.out, c.get()) }
func (c *floatArrayCol) column(n int) event.Column {
	if c.out == nil {
		return make(event.FloatArrays, 0, n)
	}
	return c.out
}

type intArrayCol struct {
	get func() []int64
	out event.IntArrays
}

func (c *intArrayCol) collect() { c.out = append(c.out, c.get()) }
func (c *intArrayCol) column(n int) event.Column {
	if c.out == nil {
		return make(event.IntArrays, 0, n)
	}
	return c.out
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// The reader reuses slice storage between entries, so arrays are copied.
func floatsOf[T float32 | float64](s []T) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

func intsOf[T integer](s []T) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func newCollector(v any) (collector, error) {
	switch p := v.(type) {
	case *float32:
		return &floatCol{get: func() float64 { return float64(*p) }}, nil
	case *float64:
		return &floatCol{get: func() float64 { return *p }}, nil
	case *int8:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *int16:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *int32:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *int64:
		return &intCol{get: func() int64 { return *p }}, nil
	case *uint8:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *uint16:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *uint32:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *uint64:
		return &intCol{get: func() int64 { return int64(*p) }}, nil
	case *bool:
		return &boolCol{p: p}, nil
	case *[]float32:
		return &floatArrayCol{get: func() []float64 { return floatsOf(*p) }}, nil
	case *[]float64:
		return &floatArrayCol{get: func() []float64 { return floatsOf(*p) }}, nil
	case *[]int8:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]int16:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]int32:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]int64:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]uint8:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]uint16:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]uint32:
		return &intArrayCol{get: func() []int64 { return intsOf(*p) }}, nil
	case *[]bool:
		return &intArrayCol{get: func() []int64 {
			out := make([]int64, len(*p))
			for i, b := range *p {
				if b {
					out[i] = 1
				}
			}
			return out
		}}, nil
	}
	return nil, fmt.Errorf("unsupported ROOT type %T", v)
}
