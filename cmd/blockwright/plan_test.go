package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/schema"
	"github.com/fentz26/blockwright/internal/selection"
)

func planMatrix() *selection.Matrix {
	meta := schema.ProjectMeta{
		Suites: []schema.TestSuite{
			{Name: "Login", Cases: []schema.TestCase{
				{Name: "valid", Tags: []string{"smoke"}},
				{Name: "invalid", Tags: []string{"regression"}},
			}},
			{Name: "Cart", Cases: []schema.TestCase{{Name: "add", Tags: []string{"smoke"}}}},
		},
	}
	return selection.Build(meta, []string{"chromium", "firefox"})
}

func TestRunFilterSelectedAll(t *testing.T) {
	m := planMatrix()
	require.NoError(t, runFilter{}.apply(m, dispatch.ModeSelected))

	reqs := dispatch.Expand(m, dispatch.ModeSelected, dispatch.ExpandOptions{DefaultTarget: "chromium"})
	require.Len(t, reqs, 2, "one suite-level request per suite")
	for _, r := range reqs {
		assert.Empty(t, r.Case)
		assert.Equal(t, "chromium", r.Target)
	}
}

func TestRunFilterNarrowsToCase(t *testing.T) {
	m := planMatrix()
	f := runFilter{Cases: []string{"Login/invalid"}, Browsers: []string{"firefox"}}
	require.NoError(t, f.apply(m, dispatch.ModeSelected))

	reqs := dispatch.Expand(m, dispatch.ModeSelected, dispatch.ExpandOptions{DefaultTarget: "chromium"})
	require.Len(t, reqs, 1)
	assert.Equal(t, "Login", reqs[0].Suite)
	assert.Equal(t, "invalid", reqs[0].Case)
	assert.Equal(t, "firefox", reqs[0].Target)
}

func TestRunFilterSmokeKeepsTags(t *testing.T) {
	m := planMatrix()
	require.NoError(t, runFilter{Suites: []string{"Login"}}.apply(m, dispatch.ModeSmoke))

	reqs := dispatch.Expand(m, dispatch.ModeSmoke, dispatch.ExpandOptions{DefaultTarget: "chromium"})
	require.Len(t, reqs, 1, "Cart is out of scope, Login/invalid is not smoke")
	assert.Equal(t, "valid", reqs[0].Case)
}

func TestRunFilterErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter runFilter
		want   error
	}{
		{"unknown suite", runFilter{Suites: []string{"Nope"}}, selection.ErrUnknownSuite},
		{"unknown case", runFilter{Cases: []string{"Login/nope"}}, selection.ErrUnknownCase},
		{"unknown browser", runFilter{Browsers: []string{"edge"}}, selection.ErrUnknownTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.apply(planMatrix(), dispatch.ModeSelected)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	err := runFilter{Cases: []string{"no-slash"}}.apply(planMatrix(), dispatch.ModeSelected)
	assert.ErrorContains(t, err, "want suite/case")
}

func TestParseSelectors(t *testing.T) {
	got, err := parseSelectors([]string{"submit=#go", "email=input[name=email]"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"submit": "#go", "email": "input[name=email]"}, got)

	_, err = parseSelectors([]string{"broken"})
	assert.Error(t, err)
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "    a\n    b", indent("a\nb\n"))
}
