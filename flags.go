package htauplot

import (
	"fmt"
	"strconv"
	"strings"
)

// arrayFlag collects repeated or comma separated flag values. The first Set
// replaces the default.
type arrayFlag[T any] struct {
	Array   []T
	parse   func(string) (T, error)
	beenSet bool
}

func (f *arrayFlag[T]) Set(valueStr string) error {
	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}
	for _, s := range strings.Split(valueStr, ",") {
		value, err := f.parse(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		f.Array = append(f.Array, value)
	}
	return nil
}

func (f *arrayFlag[T]) String() string {
	if f == nil {
		return "[]"
	}
	return fmt.Sprint(f.Array)
}

// IsSet reports whether the flag was given on the command line.
func (f *arrayFlag[T]) IsSet() bool { return f.beenSet }

type IntArrayFlags struct{ arrayFlag[int] }

func NewIntArrayFlags(defaults ...int) *IntArrayFlags {
	return &IntArrayFlags{arrayFlag[int]{Array: defaults, parse: strconv.Atoi}}
}

type StringArrayFlags struct{ arrayFlag[string] }

func NewStringArrayFlags(defaults ...string) *StringArrayFlags {
	parse := func(s string) (string, error) {
		if s == "" {
			return "", fmt.Errorf("empty value")
		}
		return s, nil
	}
	return &StringArrayFlags{arrayFlag[string]{Array: defaults, parse: parse}}
}
