package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fentz26/blockwright/internal/schema"
)

var targets = []string{"chromium", "firefox", "webkit"}

func checkout() schema.ProjectMeta {
	m := schema.DefaultMeta("shop")
	m.Suites = []schema.TestSuite{
		{
			Name: "Checkout",
			Cases: []schema.TestCase{
				{Name: "guest", Tags: []string{"smoke"}},
				{Name: "member", Tags: []string{"smoke", "regression"}},
				{Name: "coupon", Tags: []string{"regression"}},
			},
		},
		{Name: "Empty", File: "empty.spec.ts", Cases: []schema.TestCase{}},
	}
	return m
}

func TestBuildSeedsFromTags(t *testing.T) {
	m := Build(checkout(), targets)

	s, err := m.Suite("Checkout")
	require.NoError(t, err)
	assert.Equal(t, "checkout.spec.ts", s.File)
	assert.False(t, s.Smoke)
	assert.False(t, s.Regression)
	assert.False(t, s.Selected)

	_, guest, err := m.Case("Checkout", "guest")
	require.NoError(t, err)
	assert.True(t, guest.Smoke)
	assert.False(t, guest.Regression)
	assert.False(t, guest.Selected)
	assert.Equal(t, map[string]bool{"chromium": false, "firefox": false, "webkit": false}, guest.Browsers)

	empty, err := m.Suite("Empty")
	require.NoError(t, err)
	assert.Equal(t, "empty.spec.ts", empty.File)
	assert.False(t, empty.Smoke, "a suite without cases seeds false")
}

func TestBuildSuiteSeedIsAndOverCases(t *testing.T) {
	meta := checkout()
	for i := range meta.Suites[0].Cases {
		meta.Suites[0].Cases[i].Tags = []string{"smoke"}
	}
	s, err := Build(meta, targets).Suite("Checkout")
	require.NoError(t, err)
	assert.True(t, s.Smoke)
	assert.False(t, s.Regression)
}

func TestCascadeExample(t *testing.T) {
	m := Build(checkout(), targets)

	require.NoError(t, m.SetSuite("Checkout", FieldSelected, true, true))
	s, _ := m.Suite("Checkout")
	assert.True(t, s.Selected)
	for _, c := range s.Cases {
		assert.True(t, c.Selected, c.Name)
	}

	require.NoError(t, m.SetCase("Checkout", "member", FieldSelected, false))
	assert.False(t, s.Selected, "one unselected case clears the suite")

	require.NoError(t, m.SetCase("Checkout", "member", FieldSelected, true))
	assert.True(t, s.Selected, "all cases selected selects the suite")
}

func TestSetSuiteWithoutCascade(t *testing.T) {
	m := Build(checkout(), targets)

	require.NoError(t, m.SetSuite("Checkout", FieldRegression, true, false))
	s, _ := m.Suite("Checkout")
	assert.True(t, s.Regression)
	_, guest, _ := m.Case("Checkout", "guest")
	assert.False(t, guest.Regression)
}

func TestBrowserCascade(t *testing.T) {
	m := Build(checkout(), targets)

	require.NoError(t, m.SetSuiteBrowser("Checkout", "firefox", true))
	s, _ := m.Suite("Checkout")
	assert.True(t, s.Browsers["firefox"])
	for _, c := range s.Cases {
		assert.True(t, c.Browsers["firefox"])
		assert.False(t, c.Browsers["webkit"])
	}

	require.NoError(t, m.SetCaseBrowser("Checkout", "coupon", "firefox", false))
	assert.False(t, s.Browsers["firefox"])

	require.NoError(t, m.SetCaseBrowser("Checkout", "coupon", "firefox", true))
	assert.True(t, s.Browsers["firefox"])

	assert.Equal(t, []string{"firefox"}, s.ChosenTargets(m.Targets))
}

func TestUnknownLookups(t *testing.T) {
	m := Build(checkout(), targets)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"suite", m.SetSuite("Nope", FieldSelected, true, true), ErrUnknownSuite},
		{"case", m.SetCase("Checkout", "nope", FieldSmoke, true), ErrUnknownCase},
		{"case in unknown suite", m.SetCase("Nope", "guest", FieldSmoke, true), ErrUnknownSuite},
		{"suite target", m.SetSuiteBrowser("Checkout", "edge", true), ErrUnknownTarget},
		{"case target", m.SetCaseBrowser("Checkout", "guest", "edge", true), ErrUnknownTarget},
		{"field", m.SetSuite("Checkout", Field(9), true, true), ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.want), "got %v", tt.err)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := Build(checkout(), targets)
	c := m.Clone()

	require.NoError(t, c.SetSuiteBrowser("Checkout", "webkit", true))
	require.NoError(t, c.SetSuite("Checkout", FieldSelected, true, true))

	s, _ := m.Suite("Checkout")
	assert.False(t, s.Browsers["webkit"])
	assert.False(t, s.Cases[0].Selected)
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "selected", FieldSelected.String())
	assert.Equal(t, "smoke", FieldSmoke.String())
	assert.Equal(t, "regression", FieldRegression.String())
	assert.Equal(t, "Field(7)", Field(7).String())
}

// After any sequence of case edits the suite flag equals the AND over its
// cases, and a cascading suite edit forces every case to the same value.
func TestCascadeInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "cases")
		suite := schema.TestSuite{Name: "S"}
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('a' + i))
			suite.Cases = append(suite.Cases, schema.TestCase{Name: names[i]})
		}
		meta := schema.DefaultMeta("p")
		meta.Suites = []schema.TestSuite{suite}
		m := Build(meta, targets)
		fields := []Field{FieldSelected, FieldSmoke, FieldRegression}

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			f := rapid.SampledFrom(fields).Draw(t, "field")
			v := rapid.Bool().Draw(t, "value")
			target := rapid.SampledFrom(targets).Draw(t, "target")

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				if err := m.SetSuite("S", f, v, true); err != nil {
					t.Fatal(err)
				}
				s, _ := m.Suite("S")
				for _, c := range s.Cases {
					if c.Get(f) != v {
						t.Fatalf("cascade left case %s %s=%v", c.Name, f, c.Get(f))
					}
				}
			case 1:
				name := rapid.SampledFrom(names).Draw(t, "case")
				if err := m.SetCase("S", name, f, v); err != nil {
					t.Fatal(err)
				}
				s, _ := m.Suite("S")
				if s.Get(f) != s.allCases(f) {
					t.Fatalf("suite %s=%v does not match AND over cases", f, s.Get(f))
				}
			case 2:
				if err := m.SetSuiteBrowser("S", target, v); err != nil {
					t.Fatal(err)
				}
				s, _ := m.Suite("S")
				for _, c := range s.Cases {
					if c.Browsers[target] != v {
						t.Fatalf("browser cascade left case %s %s=%v", c.Name, target, c.Browsers[target])
					}
				}
			case 3:
				name := rapid.SampledFrom(names).Draw(t, "case")
				if err := m.SetCaseBrowser("S", name, target, v); err != nil {
					t.Fatal(err)
				}
				s, _ := m.Suite("S")
				if s.Browsers[target] != s.allCasesTarget(target) {
					t.Fatalf("suite %s=%v does not match AND over cases", target, s.Browsers[target])
				}
			}
		}
	})
}
