package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/schema"
	"github.com/fentz26/blockwright/internal/selection"
)

func testMatrix() *selection.Matrix {
	meta := schema.ProjectMeta{
		Name: "shop",
		Suites: []schema.TestSuite{
			{Name: "Login", Cases: []schema.TestCase{
				{Name: "valid", Tags: []string{"smoke"}},
				{Name: "invalid"},
			}},
			{Name: "Cart", Cases: []schema.TestCase{{Name: "add item"}}},
		},
	}
	return selection.Build(meta, []string{"chromium", "firefox"})
}

func press(a *App, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a.Update(msg)
	}
}

func TestRowsFollowCollapse(t *testing.T) {
	a := New(testMatrix(), Options{})
	assert.Len(t, a.rows, 5)

	press(a, "left")
	assert.Len(t, a.rows, 3, "collapsing Login hides its two cases")

	press(a, "down", "left")
	assert.Len(t, a.rows, 2)
	assert.Equal(t, 1, a.cursor)

	press(a, "right")
	assert.Len(t, a.rows, 3)
}

func TestCollapseFromCaseJumpsToSuite(t *testing.T) {
	a := New(testMatrix(), Options{})
	press(a, "down", "down", "left")
	assert.Equal(t, 0, a.cursor)
	assert.Len(t, a.rows, 3)
}

func TestSuiteToggleCascades(t *testing.T) {
	m := testMatrix()
	a := New(m, Options{Cascade: true})

	press(a, " ")
	login, err := m.Suite("Login")
	require.NoError(t, err)
	assert.True(t, login.Selected)
	for _, c := range login.Cases {
		assert.True(t, c.Selected, c.Name)
	}

	// Without cascade only the suite changes.
	press(a, "c", " ")
	assert.False(t, a.cascade)
	assert.False(t, login.Selected)
	assert.True(t, login.Cases[0].Selected)
}

func TestCaseToggleRecomputesSuite(t *testing.T) {
	m := testMatrix()
	a := New(m, Options{})
	login, _ := m.Suite("Login")
	assert.False(t, login.Smoke)

	press(a, "down", "down", "s")
	assert.True(t, login.Cases[1].Smoke)
	assert.True(t, login.Smoke, "all cases are smoke now")

	press(a, "g")
	assert.True(t, login.Cases[1].Regression)
	assert.False(t, login.Regression)
}

func TestBrowserToggle(t *testing.T) {
	m := testMatrix()
	a := New(m, Options{})
	login, _ := m.Suite("Login")

	press(a, "2")
	assert.True(t, login.Browsers["firefox"])
	assert.True(t, login.Cases[0].Browsers["firefox"])
	assert.True(t, login.Cases[1].Browsers["firefox"])

	press(a, "down", "2")
	assert.False(t, login.Cases[0].Browsers["firefox"])
	assert.False(t, login.Browsers["firefox"])

	press(a, "9")
	assert.True(t, a.isError)
	assert.Contains(t, a.message, "no browser 9")
}

func TestModeCyclesAndRunConfirms(t *testing.T) {
	a := New(testMatrix(), Options{Mode: dispatch.ModeSelected})
	press(a, "tab")
	assert.Equal(t, dispatch.ModeSmoke, a.mode)
	press(a, "tab", "tab")
	assert.Equal(t, dispatch.ModeSelected, a.mode)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	res := a.Result()
	assert.True(t, res.Confirmed)
	assert.Equal(t, dispatch.ModeSelected, res.Mode)
}

func TestQuitDoesNotConfirm(t *testing.T) {
	a := New(testMatrix(), Options{})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.False(t, a.Result().Confirmed)
}

func TestPlannedFollowsSelection(t *testing.T) {
	a := New(testMatrix(), Options{Mode: dispatch.ModeSmoke, DefaultTarget: "chromium"})
	assert.Equal(t, 1, a.Planned(), "Login/valid is tagged smoke")

	press(a, "tab", "tab")
	assert.Equal(t, dispatch.ModeSelected, a.mode)
	assert.Equal(t, 0, a.Planned())
}

func TestViewRendersMatrix(t *testing.T) {
	a := New(testMatrix(), Options{Project: "shop"})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := a.View()
	for _, want := range []string{"Blockwright", "shop", "Login", "invalid", "Cart", "1:chromium", "2:firefox", "mode: selected"} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}

	empty := New(&selection.Matrix{}, Options{})
	assert.Contains(t, empty.View(), "No suites yet")
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	a := New(testMatrix(), Options{})
	a.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	require.Equal(t, 3, a.listHeight())

	press(a, "down", "down", "down", "down")
	assert.Equal(t, 4, a.cursor)
	assert.Equal(t, 2, a.offset)

	press(a, "up", "up", "up", "up")
	assert.Equal(t, 0, a.offset)
}
