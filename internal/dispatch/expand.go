package dispatch

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/selection"
)

// Mode picks which selection field qualifies a case for a run.
type Mode int

const (
	ModeSelected Mode = iota
	ModeSmoke
	ModeRegression
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeSelected, ModeSmoke, ModeRegression}

func (m Mode) String() string {
	return m.Field().String()
}

// Field is the selection field the mode reads.
func (m Mode) Field() selection.Field {
	switch m {
	case ModeSmoke:
		return selection.FieldSmoke
	case ModeRegression:
		return selection.FieldRegression
	}
	return selection.FieldSelected
}

// ParseMode parses "selected", "smoke" or "regression".
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return ModeSelected, fmt.Errorf("unknown run mode %q (want selected, smoke or regression)", s)
}

// ExpandOptions controls request expansion.
type ExpandOptions struct {
	// DefaultTarget is used when no browser is chosen.
	DefaultTarget string
	Headless      bool
	// BatchID groups the requests; a fresh one is generated when empty.
	BatchID string
}

// Expand turns a selection matrix into run requests. A suite whose own mode
// field is set, with every case agreeing on the browser set, runs as one
// request per target. A suite set on its own, with no qualifying case, runs
// whole on the suite's browsers. Otherwise each qualifying case runs on its
// own.
func Expand(m *selection.Matrix, mode Mode, opts ExpandOptions) []models.RunRequest {
	batch := opts.BatchID
	if batch == "" {
		batch = uuid.New().String()
	}
	field := mode.Field()

	var reqs []models.RunRequest
	add := func(s *selection.SuiteSelection, caseName string, targets []string) {
		if len(targets) == 0 {
			targets = []string{opts.DefaultTarget}
		}
		for _, t := range targets {
			reqs = append(reqs, models.RunRequest{
				ID:       uuid.New().String(),
				BatchID:  batch,
				Suite:    s.Name,
				Case:     caseName,
				File:     s.File,
				Target:   t,
				Headless: opts.Headless,
			})
		}
	}

	for _, s := range m.Suites {
		var qualifying []*selection.CaseSelection
		for _, c := range s.Cases {
			if c.Get(field) {
				qualifying = append(qualifying, c)
			}
		}
		if len(qualifying) == 0 {
			if s.Get(field) {
				add(s, "", s.ChosenTargets(m.Targets))
			}
			continue
		}

		if s.Get(field) && len(qualifying) == len(s.Cases) && sameTargets(s.Cases, m.Targets) {
			add(s, "", s.Cases[0].ChosenTargets(m.Targets))
			continue
		}
		for _, c := range qualifying {
			add(s, c.Name, c.ChosenTargets(m.Targets))
		}
	}
	return reqs
}

func sameTargets(cases []*selection.CaseSelection, order []string) bool {
	for _, t := range order {
		want := cases[0].Browsers[t]
		for _, c := range cases[1:] {
			if c.Browsers[t] != want {
				return false
			}
		}
	}
	return true
}
