package schema

import (
	"fmt"
	"strings"
)

// Edit is one user mutation of the schema. The set of edits is closed; every
// variant lives in this file.
type Edit interface {
	// Kind names the edit for audit records, e.g. "page.add".
	Kind() string
	apply(m *ProjectMeta, policy ConflictPolicy) error
}

// Apply returns a copy of meta with edit applied. On error the returned value
// is the zero ProjectMeta and meta is left untouched.
func Apply(meta ProjectMeta, edit Edit, policy ConflictPolicy) (ProjectMeta, error) {
	next := meta.Clone()
	next.Normalize()
	if err := edit.apply(&next, policy); err != nil {
		return ProjectMeta{}, err
	}
	return next, nil
}

// LocatorRef points at a locator key on a page object.
type LocatorRef struct {
	Page string
	Key  string
}

// ParseLocatorRef parses "page.key". The key may itself contain dots.
func ParseLocatorRef(s string) (LocatorRef, error) {
	page, key, ok := strings.Cut(s, ".")
	if !ok || page == "" || key == "" {
		return LocatorRef{}, fmt.Errorf("locator reference %q must look like page.key", s)
	}
	return LocatorRef{Page: page, Key: key}, nil
}

// Resolve returns the literal selector the reference points at.
func (r LocatorRef) Resolve(m *ProjectMeta) (string, error) {
	pi := m.PageIndex(r.Page)
	if pi < 0 {
		return "", &NotFoundError{Kind: "page", Name: r.Page}
	}
	sel, ok := m.Pages[pi].Selectors[r.Key]
	if !ok {
		return "", &NotFoundError{Kind: "locator", Name: r.Page + "." + r.Key}
	}
	return sel, nil
}

// ActionTarget addresses an action sequence: a case's actions, or a suite
// hook when Hook is set.
type ActionTarget struct {
	Suite string
	Case  string
	Hook  HookPhase
}

func (t ActionTarget) String() string {
	if t.Hook != "" {
		return fmt.Sprintf("%s/%s", t.Suite, t.Hook)
	}
	return fmt.Sprintf("%s/%s", t.Suite, t.Case)
}

// sequence returns a pointer to the addressed slice. create allows a missing
// hook phase to be materialized.
func (t ActionTarget) sequence(m *ProjectMeta, create bool) (*[]Action, error) {
	si := m.SuiteIndex(t.Suite)
	if si < 0 {
		return nil, &NotFoundError{Kind: "suite", Name: t.Suite}
	}
	suite := &m.Suites[si]
	if t.Hook != "" {
		if !t.Hook.Valid() {
			return nil, fmt.Errorf("unknown hook phase %q", t.Hook)
		}
		if suite.Hooks == nil {
			if !create {
				return nil, &NotFoundError{Kind: "hook", Name: string(t.Hook)}
			}
			suite.Hooks = map[HookPhase][]Action{}
		}
		if _, ok := suite.Hooks[t.Hook]; !ok {
			if !create {
				return nil, &NotFoundError{Kind: "hook", Name: string(t.Hook)}
			}
			suite.Hooks[t.Hook] = []Action{}
		}
		seq := suite.Hooks[t.Hook]
		return &seq, nil
	}
	ci := suite.CaseIndex(t.Case)
	if ci < 0 {
		return nil, &NotFoundError{Kind: "case", Name: t.Suite + "/" + t.Case}
	}
	return &suite.Cases[ci].Actions, nil
}

// store writes a hook sequence back; case sequences are updated in place.
func (t ActionTarget) store(m *ProjectMeta, seq []Action) {
	if t.Hook == "" {
		return
	}
	suite := &m.Suites[m.SuiteIndex(t.Suite)]
	if len(seq) == 0 {
		delete(suite.Hooks, t.Hook)
		if len(suite.Hooks) == 0 {
			suite.Hooks = nil
		}
		return
	}
	suite.Hooks[t.Hook] = seq
}

// --- Env ---

// SetEnv replaces the base URL and timeout. Extension fields are kept.
type SetEnv struct {
	BaseURL string
	Timeout int
}

func (SetEnv) Kind() string { return "env.set" }

func (e SetEnv) apply(m *ProjectMeta, _ ConflictPolicy) error {
	if e.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", e.Timeout)
	}
	m.Env.BaseURL = e.BaseURL
	m.Env.Timeout = e.Timeout
	return nil
}

// --- Pages ---

// AddPage appends a page object.
type AddPage struct {
	Page PageObject
}

func (AddPage) Kind() string { return "page.add" }

func (e AddPage) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if e.Page.Name == "" {
		return ErrInvalidName
	}
	page := e.Page.clone()
	if page.Selectors == nil {
		page.Selectors = map[string]string{}
	}
	if i := m.PageIndex(page.Name); i >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "page", Name: page.Name}
		}
		m.Pages[i] = page
		return nil
	}
	m.Pages = append(m.Pages, page)
	return nil
}

// RemovePage deletes a page object. Actions that used its locators keep
// their literal selectors.
type RemovePage struct {
	Name string
}

func (RemovePage) Kind() string { return "page.remove" }

func (e RemovePage) apply(m *ProjectMeta, _ ConflictPolicy) error {
	i := m.PageIndex(e.Name)
	if i < 0 {
		return &NotFoundError{Kind: "page", Name: e.Name}
	}
	m.Pages = append(m.Pages[:i], m.Pages[i+1:]...)
	return nil
}

// RenamePage changes a page object's name.
type RenamePage struct {
	From, To string
}

func (RenamePage) Kind() string { return "page.rename" }

func (e RenamePage) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if e.To == "" {
		return ErrInvalidName
	}
	i := m.PageIndex(e.From)
	if i < 0 {
		return &NotFoundError{Kind: "page", Name: e.From}
	}
	if e.From == e.To {
		return nil
	}
	if j := m.PageIndex(e.To); j >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "page", Name: e.To}
		}
		m.Pages = append(m.Pages[:j], m.Pages[j+1:]...)
		i = m.PageIndex(e.From)
	}
	m.Pages[i].Name = e.To
	return nil
}

// SetLocator adds a locator key to a page.
type SetLocator struct {
	Page     string
	Key      string
	Selector string
}

func (SetLocator) Kind() string { return "locator.set" }

func (e SetLocator) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if e.Key == "" {
		return ErrInvalidName
	}
	if e.Selector == "" {
		return fmt.Errorf("locator %q: selector must not be empty", e.Key)
	}
	i := m.PageIndex(e.Page)
	if i < 0 {
		return &NotFoundError{Kind: "page", Name: e.Page}
	}
	sel := m.Pages[i].Selectors
	if _, ok := sel[e.Key]; ok && policy != Replace {
		return &ConflictError{Kind: "locator", Name: e.Page + "." + e.Key}
	}
	sel[e.Key] = e.Selector
	return nil
}

// RemoveLocator deletes a locator key from a page.
type RemoveLocator struct {
	Page string
	Key  string
}

func (RemoveLocator) Kind() string { return "locator.remove" }

func (e RemoveLocator) apply(m *ProjectMeta, _ ConflictPolicy) error {
	i := m.PageIndex(e.Page)
	if i < 0 {
		return &NotFoundError{Kind: "page", Name: e.Page}
	}
	if _, ok := m.Pages[i].Selectors[e.Key]; !ok {
		return &NotFoundError{Kind: "locator", Name: e.Page + "." + e.Key}
	}
	delete(m.Pages[i].Selectors, e.Key)
	return nil
}

// --- Suites ---

// AddSuite appends a suite.
type AddSuite struct {
	Suite TestSuite
}

func (AddSuite) Kind() string { return "suite.add" }

func (e AddSuite) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if strings.TrimSpace(e.Suite.Name) == "" {
		return ErrInvalidName
	}
	suite := e.Suite.clone()
	if suite.Cases == nil {
		suite.Cases = []TestCase{}
	}
	for _, a := range suite.allActions() {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	if i := m.SuiteIndex(suite.Name); i >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "suite", Name: suite.Name}
		}
		m.Suites[i] = suite
		return nil
	}
	m.Suites = append(m.Suites, suite)
	return nil
}

// RemoveSuite deletes a suite. Its generated script stays on disk until
// pruned.
type RemoveSuite struct {
	Name string
}

func (RemoveSuite) Kind() string { return "suite.remove" }

func (e RemoveSuite) apply(m *ProjectMeta, _ ConflictPolicy) error {
	i := m.SuiteIndex(e.Name)
	if i < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Name}
	}
	m.Suites = append(m.Suites[:i], m.Suites[i+1:]...)
	return nil
}

// RenameSuite changes a suite's name.
type RenameSuite struct {
	From, To string
}

func (RenameSuite) Kind() string { return "suite.rename" }

func (e RenameSuite) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if strings.TrimSpace(e.To) == "" {
		return ErrInvalidName
	}
	i := m.SuiteIndex(e.From)
	if i < 0 {
		return &NotFoundError{Kind: "suite", Name: e.From}
	}
	if e.From == e.To {
		return nil
	}
	if j := m.SuiteIndex(e.To); j >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "suite", Name: e.To}
		}
		m.Suites = append(m.Suites[:j], m.Suites[j+1:]...)
		i = m.SuiteIndex(e.From)
	}
	m.Suites[i].Name = e.To
	return nil
}

// SetSuiteFile sets or clears the explicit output filename of a suite.
type SetSuiteFile struct {
	Suite string
	File  string
}

func (SetSuiteFile) Kind() string { return "suite.file" }

func (e SetSuiteFile) apply(m *ProjectMeta, _ ConflictPolicy) error {
	i := m.SuiteIndex(e.Suite)
	if i < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Suite}
	}
	m.Suites[i].File = e.File
	return nil
}

// --- Cases ---

// AddCase appends a case to a suite.
type AddCase struct {
	Suite string
	Case  TestCase
}

func (AddCase) Kind() string { return "case.add" }

func (e AddCase) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if strings.TrimSpace(e.Case.Name) == "" {
		return ErrInvalidName
	}
	si := m.SuiteIndex(e.Suite)
	if si < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Suite}
	}
	c := e.Case.clone()
	c.Tags = dedupe(c.Tags)
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	for _, a := range c.Actions {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	suite := &m.Suites[si]
	if ci := suite.CaseIndex(c.Name); ci >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "case", Name: e.Suite + "/" + c.Name}
		}
		suite.Cases[ci] = c
		return nil
	}
	suite.Cases = append(suite.Cases, c)
	return nil
}

// RemoveCase deletes a case from a suite.
type RemoveCase struct {
	Suite, Case string
}

func (RemoveCase) Kind() string { return "case.remove" }

func (e RemoveCase) apply(m *ProjectMeta, _ ConflictPolicy) error {
	si := m.SuiteIndex(e.Suite)
	if si < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Suite}
	}
	suite := &m.Suites[si]
	ci := suite.CaseIndex(e.Case)
	if ci < 0 {
		return &NotFoundError{Kind: "case", Name: e.Suite + "/" + e.Case}
	}
	suite.Cases = append(suite.Cases[:ci], suite.Cases[ci+1:]...)
	return nil
}

// RenameCase changes a case's name within its suite.
type RenameCase struct {
	Suite    string
	From, To string
}

func (RenameCase) Kind() string { return "case.rename" }

func (e RenameCase) apply(m *ProjectMeta, policy ConflictPolicy) error {
	if strings.TrimSpace(e.To) == "" {
		return ErrInvalidName
	}
	si := m.SuiteIndex(e.Suite)
	if si < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Suite}
	}
	suite := &m.Suites[si]
	ci := suite.CaseIndex(e.From)
	if ci < 0 {
		return &NotFoundError{Kind: "case", Name: e.Suite + "/" + e.From}
	}
	if e.From == e.To {
		return nil
	}
	if cj := suite.CaseIndex(e.To); cj >= 0 {
		if policy != Replace {
			return &ConflictError{Kind: "case", Name: e.Suite + "/" + e.To}
		}
		suite.Cases = append(suite.Cases[:cj], suite.Cases[cj+1:]...)
		ci = suite.CaseIndex(e.From)
	}
	suite.Cases[ci].Name = e.To
	return nil
}

// SetCaseTags replaces a case's tag set.
type SetCaseTags struct {
	Suite, Case string
	Tags        []string
}

func (SetCaseTags) Kind() string { return "case.tags" }

func (e SetCaseTags) apply(m *ProjectMeta, _ ConflictPolicy) error {
	si := m.SuiteIndex(e.Suite)
	if si < 0 {
		return &NotFoundError{Kind: "suite", Name: e.Suite}
	}
	ci := m.Suites[si].CaseIndex(e.Case)
	if ci < 0 {
		return &NotFoundError{Kind: "case", Name: e.Suite + "/" + e.Case}
	}
	m.Suites[si].Cases[ci].Tags = dedupe(e.Tags)
	return nil
}

// --- Actions ---

// InsertAction inserts an action at Index; -1 appends. When Locator is set
// the selector is resolved now and stored as a literal.
type InsertAction struct {
	Target  ActionTarget
	Index   int
	Action  Action
	Locator *LocatorRef
}

func (InsertAction) Kind() string { return "action.insert" }

func (e InsertAction) apply(m *ProjectMeta, _ ConflictPolicy) error {
	a := e.Action.clone()
	if e.Locator != nil {
		sel, err := e.Locator.Resolve(m)
		if err != nil {
			return err
		}
		a.Selector = sel
	}
	if err := a.Validate(); err != nil {
		return err
	}
	seq, err := e.Target.sequence(m, true)
	if err != nil {
		return err
	}
	idx := e.Index
	if idx == -1 {
		idx = len(*seq)
	}
	if idx < 0 || idx > len(*seq) {
		e.Target.store(m, *seq)
		return fmt.Errorf("insert at %d into %s (len %d): %w", e.Index, e.Target, len(*seq), ErrIndexOutOfRange)
	}
	next := make([]Action, 0, len(*seq)+1)
	next = append(next, (*seq)[:idx]...)
	next = append(next, a)
	next = append(next, (*seq)[idx:]...)
	*seq = next
	e.Target.store(m, next)
	return nil
}

// MoveAction moves the action at From so that it ends up at To.
type MoveAction struct {
	Target   ActionTarget
	From, To int
}

func (MoveAction) Kind() string { return "action.move" }

func (e MoveAction) apply(m *ProjectMeta, _ ConflictPolicy) error {
	seq, err := e.Target.sequence(m, false)
	if err != nil {
		return err
	}
	n := len(*seq)
	if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
		return fmt.Errorf("move %d -> %d in %s (len %d): %w", e.From, e.To, e.Target, n, ErrIndexOutOfRange)
	}
	s := *seq
	moved := s[e.From]
	rest := append(append([]Action{}, s[:e.From]...), s[e.From+1:]...)
	next := make([]Action, 0, n)
	next = append(next, rest[:e.To]...)
	next = append(next, moved)
	next = append(next, rest[e.To:]...)
	copy(s, next)
	e.Target.store(m, s)
	return nil
}

// RemoveAction deletes the action at Index.
type RemoveAction struct {
	Target ActionTarget
	Index  int
}

func (RemoveAction) Kind() string { return "action.remove" }

func (e RemoveAction) apply(m *ProjectMeta, _ ConflictPolicy) error {
	seq, err := e.Target.sequence(m, false)
	if err != nil {
		return err
	}
	if e.Index < 0 || e.Index >= len(*seq) {
		return fmt.Errorf("remove %d from %s (len %d): %w", e.Index, e.Target, len(*seq), ErrIndexOutOfRange)
	}
	next := append(append([]Action{}, (*seq)[:e.Index]...), (*seq)[e.Index+1:]...)
	*seq = next
	e.Target.store(m, next)
	return nil
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
