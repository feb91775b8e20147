// Package selection projects a project schema into the per-suite and
// per-case run intent used by the execution view. The matrix is never
// persisted.
package selection

import (
	"errors"
	"fmt"

	"github.com/fentz26/blockwright/internal/regen"
	"github.com/fentz26/blockwright/internal/schema"
)

// Tags that seed the smoke and regression flags of a case.
const (
	TagSmoke      = "smoke"
	TagRegression = "regression"
)

var (
	ErrUnknownSuite  = errors.New("unknown suite")
	ErrUnknownCase   = errors.New("unknown case")
	ErrUnknownTarget = errors.New("unknown browser target")
	ErrUnknownField  = errors.New("unknown selection field")
)

// Field is one of the boolean run-intent fields that cascade between a suite
// and its cases.
type Field int

const (
	FieldSelected Field = iota
	FieldSmoke
	FieldRegression
)

func (f Field) String() string {
	switch f {
	case FieldSelected:
		return "selected"
	case FieldSmoke:
		return "smoke"
	case FieldRegression:
		return "regression"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Flags is the run intent of one suite or case.
type Flags struct {
	Selected   bool            `json:"selected"`
	Smoke      bool            `json:"smoke"`
	Regression bool            `json:"regression"`
	Browsers   map[string]bool `json:"browsers"`
}

// Get returns the value of f.
func (fl *Flags) Get(f Field) bool {
	switch f {
	case FieldSmoke:
		return fl.Smoke
	case FieldRegression:
		return fl.Regression
	default:
		return fl.Selected
	}
}

func (fl *Flags) set(f Field, v bool) {
	switch f {
	case FieldSmoke:
		fl.Smoke = v
	case FieldRegression:
		fl.Regression = v
	default:
		fl.Selected = v
	}
}

// ChosenTargets returns the targets flagged true, in the matrix target order.
func (fl *Flags) ChosenTargets(order []string) []string {
	var out []string
	for _, t := range order {
		if fl.Browsers[t] {
			out = append(out, t)
		}
	}
	return out
}

// CaseSelection is the run intent of one case.
type CaseSelection struct {
	Name string `json:"name"`
	Flags
}

// SuiteSelection is the run intent of one suite and its cases.
type SuiteSelection struct {
	Name  string           `json:"name"`
	File  string           `json:"file"`
	Cases []*CaseSelection `json:"cases"`
	Flags
}

// Matrix is the selection projection of a whole project.
type Matrix struct {
	Targets []string          `json:"targets"`
	Suites  []*SuiteSelection `json:"suites"`
}

// Build derives a fresh matrix from meta. Case smoke/regression flags follow
// the case tags; every other flag starts false. A suite's smoke/regression
// flags start as the AND over its cases.
func Build(meta schema.ProjectMeta, targets []string) *Matrix {
	m := &Matrix{Targets: append([]string{}, targets...)}
	for _, s := range meta.Suites {
		ss := &SuiteSelection{
			Name:  s.Name,
			File:  regen.FileName(s),
			Flags: newFlags(targets),
		}
		for _, c := range s.Cases {
			cs := &CaseSelection{Name: c.Name, Flags: newFlags(targets)}
			cs.Smoke = c.HasTag(TagSmoke)
			cs.Regression = c.HasTag(TagRegression)
			ss.Cases = append(ss.Cases, cs)
		}
		ss.Smoke = ss.allCases(FieldSmoke)
		ss.Regression = ss.allCases(FieldRegression)
		m.Suites = append(m.Suites, ss)
	}
	return m
}

func newFlags(targets []string) Flags {
	b := make(map[string]bool, len(targets))
	for _, t := range targets {
		b[t] = false
	}
	return Flags{Browsers: b}
}

// allCases is the AND of field over every case; false for a suite without
// cases.
func (s *SuiteSelection) allCases(f Field) bool {
	if len(s.Cases) == 0 {
		return false
	}
	for _, c := range s.Cases {
		if !c.Get(f) {
			return false
		}
	}
	return true
}

func (s *SuiteSelection) allCasesTarget(target string) bool {
	if len(s.Cases) == 0 {
		return false
	}
	for _, c := range s.Cases {
		if !c.Browsers[target] {
			return false
		}
	}
	return true
}

// Suite looks up a suite by name.
func (m *Matrix) Suite(name string) (*SuiteSelection, error) {
	for _, s := range m.Suites {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

// Case looks up a case within a suite.
func (m *Matrix) Case(suite, name string) (*SuiteSelection, *CaseSelection, error) {
	s, err := m.Suite(suite)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range s.Cases {
		if c.Name == name {
			return s, c, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %q/%q", ErrUnknownCase, suite, name)
}

func (m *Matrix) checkTarget(target string) error {
	for _, t := range m.Targets {
		if t == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

func checkField(f Field) error {
	if f < FieldSelected || f > FieldRegression {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return nil
}

// SetSuite sets a suite field. With cascade the same value is written to
// every case.
func (m *Matrix) SetSuite(suite string, f Field, v, cascade bool) error {
	if err := checkField(f); err != nil {
		return err
	}
	s, err := m.Suite(suite)
	if err != nil {
		return err
	}
	s.set(f, v)
	if cascade {
		for _, c := range s.Cases {
			c.set(f, v)
		}
	}
	return nil
}

// SetCase sets a case field and recomputes the suite field as the AND over
// all cases.
func (m *Matrix) SetCase(suite, name string, f Field, v bool) error {
	if err := checkField(f); err != nil {
		return err
	}
	s, c, err := m.Case(suite, name)
	if err != nil {
		return err
	}
	c.set(f, v)
	s.set(f, s.allCases(f))
	return nil
}

// SetSuiteBrowser sets a target flag on the suite and on every case.
func (m *Matrix) SetSuiteBrowser(suite, target string, v bool) error {
	if err := m.checkTarget(target); err != nil {
		return err
	}
	s, err := m.Suite(suite)
	if err != nil {
		return err
	}
	s.Browsers[target] = v
	for _, c := range s.Cases {
		c.Browsers[target] = v
	}
	return nil
}

// SetCaseBrowser sets a target flag on one case and recomputes the suite
// flag for that target as the AND over all cases.
func (m *Matrix) SetCaseBrowser(suite, name, target string, v bool) error {
	if err := m.checkTarget(target); err != nil {
		return err
	}
	s, c, err := m.Case(suite, name)
	if err != nil {
		return err
	}
	c.Browsers[target] = v
	s.Browsers[target] = s.allCasesTarget(target)
	return nil
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Targets: append([]string{}, m.Targets...)}
	for _, s := range m.Suites {
		ss := &SuiteSelection{Name: s.Name, File: s.File, Flags: s.Flags.clone()}
		for _, c := range s.Cases {
			ss.Cases = append(ss.Cases, &CaseSelection{Name: c.Name, Flags: c.Flags.clone()})
		}
		out.Suites = append(out.Suites, ss)
	}
	return out
}

func (fl Flags) clone() Flags {
	out := fl
	out.Browsers = make(map[string]bool, len(fl.Browsers))
	for k, v := range fl.Browsers {
		out.Browsers[k] = v
	}
	return out
}
