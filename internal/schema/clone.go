package schema

// Clone returns a deep copy of the project.
func (m ProjectMeta) Clone() ProjectMeta {
	out := ProjectMeta{Name: m.Name, Env: m.Env.clone()}
	if m.Pages != nil {
		out.Pages = make([]PageObject, len(m.Pages))
		for i, p := range m.Pages {
			out.Pages[i] = p.clone()
		}
	}
	if m.Suites != nil {
		out.Suites = make([]TestSuite, len(m.Suites))
		for i, s := range m.Suites {
			out.Suites[i] = s.clone()
		}
	}
	return out
}

func (e Env) clone() Env {
	out := Env{BaseURL: e.BaseURL, Timeout: e.Timeout}
	if e.Extra != nil {
		out.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = cloneValue(v)
		}
	}
	return out
}

// cloneValue copies the JSON-shaped values Extra can hold.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

func (p PageObject) clone() PageObject {
	out := PageObject{Name: p.Name, File: p.File}
	if p.Selectors != nil {
		out.Selectors = make(map[string]string, len(p.Selectors))
		for k, v := range p.Selectors {
			out.Selectors[k] = v
		}
	}
	return out
}

func (s TestSuite) clone() TestSuite {
	out := TestSuite{Name: s.Name, File: s.File}
	if s.Cases != nil {
		out.Cases = make([]TestCase, len(s.Cases))
		for i, c := range s.Cases {
			out.Cases[i] = c.clone()
		}
	}
	if s.Hooks != nil {
		out.Hooks = make(map[HookPhase][]Action, len(s.Hooks))
		for phase, actions := range s.Hooks {
			out.Hooks[phase] = cloneActions(actions)
		}
	}
	return out
}

func (c TestCase) clone() TestCase {
	out := TestCase{Name: c.Name, Actions: cloneActions(c.Actions)}
	if c.Tags != nil {
		out.Tags = append([]string{}, c.Tags...)
	}
	return out
}

func (a Action) clone() Action {
	out := a
	if a.Files != nil {
		out.Files = append([]string{}, a.Files...)
	}
	return out
}

func cloneActions(actions []Action) []Action {
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	for i, a := range actions {
		out[i] = a.clone()
	}
	return out
}

// allActions returns hook actions in phase order followed by case actions.
func (s TestSuite) allActions() []Action {
	var out []Action
	for _, phase := range HookPhases {
		out = append(out, s.Hooks[phase]...)
	}
	for _, c := range s.Cases {
		out = append(out, c.Actions...)
	}
	return out
}
