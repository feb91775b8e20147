package schema

import "fmt"

// ActionType keys the closed set of browser interactions.
type ActionType string

const (
	ActionGoto          ActionType = "goto"
	ActionFill          ActionType = "fill"
	ActionClick         ActionType = "click"
	ActionDblclick      ActionType = "dblclick"
	ActionHover         ActionType = "hover"
	ActionPress         ActionType = "press"
	ActionCheck         ActionType = "check"
	ActionUncheck       ActionType = "uncheck"
	ActionSelectOption  ActionType = "selectOption"
	ActionSetInputFiles ActionType = "setInputFiles"
	ActionScreenshot    ActionType = "screenshot"
	ActionWait          ActionType = "wait"
)

// ActionTypes lists every known action type.
var ActionTypes = []ActionType{
	ActionGoto, ActionFill, ActionClick, ActionDblclick, ActionHover, ActionPress,
	ActionCheck, ActionUncheck, ActionSelectOption, ActionSetInputFiles,
	ActionScreenshot, ActionWait,
}

// Known reports whether t belongs to the closed action set.
func (t ActionType) Known() bool {
	for _, k := range ActionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// HasSelector reports whether actions of this type target an element.
func (t ActionType) HasSelector() bool {
	switch t {
	case ActionGoto, ActionWait:
		return false
	}
	return t.Known()
}

// Action is one atomic step. Only the fields relevant to Type are set; the
// selector is always a literal, never a locator key.
type Action struct {
	Type     ActionType `json:"type"`
	URL      string     `json:"url,omitempty"`
	Selector string     `json:"selector,omitempty"`
	Value    string     `json:"value,omitempty"`
	Key      string     `json:"key,omitempty"`
	Files    []string   `json:"files,omitempty"`
	Timeout  int        `json:"timeout,omitempty"`
}

// RenderError reports an action that cannot be serialized into a script.
type RenderError struct {
	Type   ActionType
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render action %q: %s", e.Type, e.Reason)
}

// Validate checks that the action is known and carries its required fields.
func (a Action) Validate() error {
	if !a.Type.Known() {
		return &RenderError{Type: a.Type, Reason: "unknown action type"}
	}
	if a.Type.HasSelector() && a.Selector == "" {
		return &RenderError{Type: a.Type, Reason: "selector is required"}
	}
	switch a.Type {
	case ActionGoto:
		if a.URL == "" {
			return &RenderError{Type: a.Type, Reason: "url is required"}
		}
	case ActionPress:
		if a.Key == "" {
			return &RenderError{Type: a.Type, Reason: "key is required"}
		}
	case ActionSetInputFiles:
		if len(a.Files) == 0 {
			return &RenderError{Type: a.Type, Reason: "at least one file is required"}
		}
	case ActionWait:
		if a.Timeout < 0 {
			return &RenderError{Type: a.Type, Reason: "timeout must not be negative"}
		}
	}
	return nil
}

// Validate checks every action of every case and hook in the project.
func (m ProjectMeta) Validate() error {
	for _, s := range m.Suites {
		for _, phase := range HookPhases {
			for i, a := range s.Hooks[phase] {
				if err := a.Validate(); err != nil {
					return fmt.Errorf("suite %q hook %s action %d: %w", s.Name, phase, i, err)
				}
			}
		}
		for _, c := range s.Cases {
			for i, a := range c.Actions {
				if err := a.Validate(); err != nil {
					return fmt.Errorf("suite %q case %q action %d: %w", s.Name, c.Name, i, err)
				}
			}
		}
	}
	return nil
}
