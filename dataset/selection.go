package dataset

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/decibelcooper/htauplot/event"
)

// Selection is a boolean expression over the scalar branches of an event,
// e.g. "METfilters && LeptonVeto == 0 && abs(HTT_pdgId) == 13*15".
type Selection struct {
	src  string
	vars []string
}

// ParseSelection checks the syntax of src and records the branches it
// reads. An empty src selects every event.
func ParseSelection(src string) (*Selection, error) {
	s := &Selection{src: src}
	if src == "" {
		return s, nil
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("selection %q: %w", src, err)
	}
	v := &identVisitor{idents: map[string]bool{}, funcs: map[string]bool{}}
	ast.Walk(&tree.Node, v)
	for name := range v.idents {
		if !v.funcs[name] {
			s.vars = append(s.vars, name)
		}
	}
	sort.Strings(s.vars)
	return s, nil
}

func (s *Selection) String() string { return s.src }

// Branches lists the branches the expression reads.
func (s *Selection) Branches() []string { return s.vars }

type identVisitor struct {
	idents, funcs map[string]bool
}

func (v *identVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.idents[n.Value] = true
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			v.funcs[id.Value] = true
		}
	}
}

// Mask evaluates the expression for every event of t. The branches it reads
// must be scalar columns of t.
func (s *Selection) Mask(t *event.Table) (event.Mask, error) {
	if s == nil || s.src == "" {
		return event.FullMask(t.Len()), nil
	}

	getters := make(map[string]func(int) any, len(s.vars))
	env := make(map[string]any, len(s.vars))
	for _, name := range s.vars {
		c, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("selection %q: %w", s.src, err)
		}
		switch c := c.(type) {
		case event.Floats:
			getters[name], env[name] = func(i int) any { return c[i] }, 0.0
		case event.Ints:
			getters[name], env[name] = func(i int) any { return c[i] }, int64(0)
		case event.Bools:
			getters[name], env[name] = func(i int) any { return c[i] }, false
		default:
			return nil, fmt.Errorf("selection %q: %s: %w", s.src, name, event.ErrBranchType)
		}
	}

	prog, err := expr.Compile(s.src, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("selection %q: %w", s.src, err)
	}
	mask := event.Mask{}
	for i := 0; i < t.Len(); i++ {
		for name, get := range getters {
			env[name] = get(i)
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return nil, fmt.Errorf("selection %q, event %d: %w", s.src, i, err)
		}
		if out.(bool) {
			mask = append(mask, i)
		}
	}
	return mask, nil
}

// Apply keeps only the events of t passing the expression. No passing
// events gives an empty table with the same branches.
func (s *Selection) Apply(t *event.Table) (*event.Table, error) {
	m, err := s.Mask(t)
	if err != nil {
		return nil, err
	}
	switch len(m) {
	case t.Len():
		return t, nil
	case 0:
		out := event.NewTable(0)
		for _, name := range t.Branches() {
			c, _ := t.Column(name)
			out.Set(name, c.Take(nil))
		}
		return out, nil
	}
	return event.Select(t, "pass_selection", m, nil)
}
