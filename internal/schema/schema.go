// Package schema defines the project metadata model for Blockwright: the
// environment, page objects, test suites and the closed set of actions.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// DefaultTimeout is the action timeout, in milliseconds, of a fresh project.
const DefaultTimeout = 5000

// ProjectMeta is the root document persisted once per project.
type ProjectMeta struct {
	Name   string       `json:"name"`
	Env    Env          `json:"env"`
	Pages  []PageObject `json:"pages"`
	Suites []TestSuite  `json:"suites"`
}

// Env holds the project environment. Unknown keys are kept in Extra.
type Env struct {
	BaseURL string
	Timeout int
	Extra   map[string]any
}

// PageObject is a named map of locator keys to selector strings.
type PageObject struct {
	Name      string            `json:"name"`
	Selectors map[string]string `json:"selectors"`
	File      string            `json:"file,omitempty"`
}

// TestSuite groups cases under one generated script.
type TestSuite struct {
	Name  string                 `json:"name"`
	File  string                 `json:"file,omitempty"`
	Cases []TestCase             `json:"cases"`
	Hooks map[HookPhase][]Action `json:"hooks,omitempty"`
}

// TestCase is one named test with its tags and ordered actions.
type TestCase struct {
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Actions []Action `json:"actions"`
}

// HookPhase is a suite lifecycle phase.
type HookPhase string

const (
	BeforeAll  HookPhase = "beforeAll"
	BeforeEach HookPhase = "beforeEach"
	AfterEach  HookPhase = "afterEach"
	AfterAll   HookPhase = "afterAll"
)

// HookPhases lists every phase in render order.
var HookPhases = []HookPhase{BeforeAll, BeforeEach, AfterEach, AfterAll}

// Valid reports whether p is one of the four known phases.
func (p HookPhase) Valid() bool {
	switch p {
	case BeforeAll, BeforeEach, AfterEach, AfterAll:
		return true
	}
	return false
}

// HasTag reports whether the case carries tag.
func (c TestCase) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DefaultEnv returns the environment of a fresh project.
func DefaultEnv() Env {
	return Env{BaseURL: "", Timeout: DefaultTimeout}
}

// DefaultMeta returns an empty project named name.
func DefaultMeta(name string) ProjectMeta {
	return ProjectMeta{
		Name:   name,
		Env:    DefaultEnv(),
		Pages:  []PageObject{},
		Suites: []TestSuite{},
	}
}

// Normalize materializes every nil sequence and map so the document always
// serializes with arrays and objects rather than nulls.
func (m *ProjectMeta) Normalize() {
	if m.Pages == nil {
		m.Pages = []PageObject{}
	}
	if m.Suites == nil {
		m.Suites = []TestSuite{}
	}
	for i := range m.Pages {
		if m.Pages[i].Selectors == nil {
			m.Pages[i].Selectors = map[string]string{}
		}
	}
	for i := range m.Suites {
		s := &m.Suites[i]
		if s.Cases == nil {
			s.Cases = []TestCase{}
		}
		for j := range s.Cases {
			c := &s.Cases[j]
			if c.Tags == nil {
				c.Tags = []string{}
			}
			if c.Actions == nil {
				c.Actions = []Action{}
			}
			normalizeActions(c.Actions)
		}
		for phase, actions := range s.Hooks {
			if len(actions) == 0 {
				delete(s.Hooks, phase)
				continue
			}
			normalizeActions(actions)
		}
		if len(s.Hooks) == 0 {
			s.Hooks = nil
		}
	}
}

func normalizeActions(actions []Action) {
	for i := range actions {
		if actions[i].Type == ActionSetInputFiles && actions[i].Files == nil {
			actions[i].Files = []string{}
		}
	}
}

// PageIndex returns the position of the named page or -1.
func (m *ProjectMeta) PageIndex(name string) int {
	for i := range m.Pages {
		if m.Pages[i].Name == name {
			return i
		}
	}
	return -1
}

// SuiteIndex returns the position of the named suite or -1.
func (m *ProjectMeta) SuiteIndex(name string) int {
	for i := range m.Suites {
		if m.Suites[i].Name == name {
			return i
		}
	}
	return -1
}

// CaseIndex returns the position of the named case or -1.
func (s *TestSuite) CaseIndex(name string) int {
	for i := range s.Cases {
		if s.Cases[i].Name == name {
			return i
		}
	}
	return -1
}

// LocatorKeys returns the page's locator keys in sorted order.
func (p PageObject) LocatorKeys() []string {
	keys := make([]string, 0, len(p.Selectors))
	for k := range p.Selectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens Extra next to the known keys.
func (e Env) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["baseUrl"] = e.BaseURL
	out["timeout"] = e.Timeout
	return json.Marshal(out)
}

// UnmarshalJSON reads baseUrl and timeout and keeps every other key in Extra.
// A fractional timeout rounds to the nearest millisecond; a non-number one is
// an error. A missing or null timeout stays zero.
func (e *Env) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Env{}
	if v, ok := raw["baseUrl"].(string); ok {
		e.BaseURL = v
	}
	switch v := raw["timeout"].(type) {
	case nil:
	case float64:
		e.Timeout = int(math.Round(v))
	default:
		return fmt.Errorf("env timeout must be a number of milliseconds, got %T", v)
	}
	delete(raw, "baseUrl")
	delete(raw, "timeout")
	if len(raw) > 0 {
		e.Extra = raw
	}
	return nil
}
