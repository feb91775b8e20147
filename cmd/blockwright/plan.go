package main

import (
	"fmt"
	"strings"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/selection"
)

// runFilter narrows a matrix for a non-interactive run.
type runFilter struct {
	Suites   []string
	Cases    []string // suite/case
	Browsers []string
}

// apply writes the filter into m for mode. Cases outside the filter are
// cleared; in selected mode, cases inside it are selected. Without suite or
// case filters, selected mode selects everything and smoke/regression keep
// their tag-derived values.
func (f runFilter) apply(m *selection.Matrix, mode dispatch.Mode) error {
	field := mode.Field()

	type key struct{ suite, kase string }
	scoped := make(map[string]bool)
	scopedCases := make(map[key]bool)
	for _, s := range f.Suites {
		if _, err := m.Suite(s); err != nil {
			return err
		}
		scoped[s] = true
	}
	for _, sc := range f.Cases {
		suite, name, ok := strings.Cut(sc, "/")
		if !ok || suite == "" || name == "" {
			return fmt.Errorf("invalid --case %q, want suite/case", sc)
		}
		if _, _, err := m.Case(suite, name); err != nil {
			return err
		}
		scopedCases[key{suite, name}] = true
	}
	all := len(scoped) == 0 && len(scopedCases) == 0

	for _, s := range m.Suites {
		for _, c := range s.Cases {
			in := all || scoped[s.Name] || scopedCases[key{s.Name, c.Name}]
			switch {
			case !in:
				if err := m.SetCase(s.Name, c.Name, field, false); err != nil {
					return err
				}
			case mode == dispatch.ModeSelected:
				if err := m.SetCase(s.Name, c.Name, field, true); err != nil {
					return err
				}
			}
		}
	}

	for _, b := range f.Browsers {
		if !hasTarget(m, b) {
			return fmt.Errorf("%w: %q (configured: %s)", selection.ErrUnknownTarget, b, strings.Join(m.Targets, ", "))
		}
		for _, s := range m.Suites {
			if err := m.SetSuiteBrowser(s.Name, b, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasTarget(m *selection.Matrix, target string) bool {
	for _, t := range m.Targets {
		if t == target {
			return true
		}
	}
	return false
}
