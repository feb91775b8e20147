package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/schema"
	"github.com/fentz26/blockwright/internal/selection"
)

var targets = []string{"chromium", "firefox", "webkit"}

func matrix() *selection.Matrix {
	m := schema.DefaultMeta("shop")
	m.Suites = []schema.TestSuite{
		{
			Name: "Checkout",
			Cases: []schema.TestCase{
				{Name: "guest", Tags: []string{"smoke"}},
				{Name: "member", Tags: []string{"smoke", "regression"}},
			},
		},
		{Name: "Search", File: "find.spec.ts", Cases: []schema.TestCase{{Name: "by name", Tags: []string{"smoke"}}}},
	}
	return selection.Build(m, targets)
}

type key struct{ suite, caseName, target string }

func keys(reqs []models.RunRequest) []key {
	out := make([]key, len(reqs))
	for i, r := range reqs {
		out[i] = key{r.Suite, r.Case, r.Target}
	}
	return out
}

func TestExpandSuiteLevel(t *testing.T) {
	m := matrix()
	require.NoError(t, m.SetSuite("Checkout", selection.FieldSelected, true, true))
	require.NoError(t, m.SetSuiteBrowser("Checkout", "chromium", true))
	require.NoError(t, m.SetSuiteBrowser("Checkout", "webkit", true))

	reqs := Expand(m, ModeSelected, ExpandOptions{DefaultTarget: "chromium", BatchID: "b1"})
	assert.Equal(t, []key{{"Checkout", "", "chromium"}, {"Checkout", "", "webkit"}}, keys(reqs))
	for _, r := range reqs {
		assert.Equal(t, "checkout.spec.ts", r.File)
		assert.Equal(t, "b1", r.BatchID)
		assert.NotEmpty(t, r.ID)
	}
	assert.NotEqual(t, reqs[0].ID, reqs[1].ID)
}

func TestExpandPerCaseWhenNotAllSelected(t *testing.T) {
	m := matrix()
	require.NoError(t, m.SetCase("Checkout", "member", selection.FieldSelected, true))

	reqs := Expand(m, ModeSelected, ExpandOptions{DefaultTarget: "firefox"})
	assert.Equal(t, []key{{"Checkout", "member", "firefox"}}, keys(reqs))
}

func TestExpandPerCaseWhenBrowsersDiffer(t *testing.T) {
	m := matrix()
	require.NoError(t, m.SetSuite("Checkout", selection.FieldSelected, true, true))
	require.NoError(t, m.SetCaseBrowser("Checkout", "guest", "chromium", true))
	require.NoError(t, m.SetCaseBrowser("Checkout", "member", "webkit", true))

	reqs := Expand(m, ModeSelected, ExpandOptions{DefaultTarget: "chromium"})
	assert.Equal(t, []key{
		{"Checkout", "guest", "chromium"},
		{"Checkout", "member", "webkit"},
	}, keys(reqs))
}

func TestExpandSmokeUsesTags(t *testing.T) {
	reqs := Expand(matrix(), ModeSmoke, ExpandOptions{DefaultTarget: "chromium", Headless: true})
	assert.Equal(t, []key{
		{"Checkout", "", "chromium"},
		{"Search", "", "chromium"},
	}, keys(reqs))
	assert.Equal(t, "find.spec.ts", reqs[1].File)
	assert.True(t, reqs[0].Headless)
	assert.Equal(t, reqs[0].BatchID, reqs[1].BatchID)
}

func TestExpandRegressionSubset(t *testing.T) {
	reqs := Expand(matrix(), ModeRegression, ExpandOptions{DefaultTarget: "chromium"})
	assert.Equal(t, []key{{"Checkout", "member", "chromium"}}, keys(reqs))
}

func TestExpandNothingSelected(t *testing.T) {
	assert.Empty(t, Expand(matrix(), ModeSelected, ExpandOptions{DefaultTarget: "chromium"}))
}

// A suite set without cascading still runs, as a whole, on its own browsers.
func TestExpandSuiteFlagWithoutCases(t *testing.T) {
	m := matrix()
	require.NoError(t, m.SetSuite("Checkout", selection.FieldSelected, true, false))
	reqs := Expand(m, ModeSelected, ExpandOptions{DefaultTarget: "chromium"})
	assert.Equal(t, []key{{"Checkout", "", "chromium"}}, keys(reqs))
	assert.Equal(t, "checkout.spec.ts", reqs[0].File)

	require.NoError(t, m.SetSuiteBrowser("Checkout", "firefox", true))
	suite, err := m.Suite("Checkout")
	require.NoError(t, err)
	require.True(t, suite.Selected, "browser toggle keeps the suite flag")
	assert.Equal(t, []key{{"Checkout", "", "firefox"}},
		keys(Expand(m, ModeSelected, ExpandOptions{DefaultTarget: "chromium"})))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"selected", ModeSelected},
		{"smoke", ModeSmoke},
		{"Regression", ModeRegression},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.Field().String(), got.String())
	}

	_, err := ParseMode("nightly")
	assert.Error(t, err)
}
