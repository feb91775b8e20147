package regen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fentz26/blockwright/internal/schema"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		suite schema.TestSuite
		want  string
	}{
		{"derived", schema.TestSuite{Name: "My Suite!"}, "my_suite_.spec.ts"},
		{"trimmed", schema.TestSuite{Name: "  Login  "}, "login.spec.ts"},
		{"collapsed runs", schema.TestSuite{Name: "Cart -- Checkout / Pay"}, "cart_checkout_pay.spec.ts"},
		{"explicit", schema.TestSuite{Name: "x", File: "custom.spec.ts"}, "custom.spec.ts"},
		{"traversal", schema.TestSuite{Name: "x", File: "../../evil.ts"}, "evil.ts"},
		{"windows traversal", schema.TestSuite{Name: "x", File: `..\..\evil.ts`}, "evil.ts"},
		{"absolute", schema.TestSuite{Name: "x", File: "/etc/passwd"}, "passwd"},
		{"dot dot only", schema.TestSuite{Name: "Fallback", File: ".."}, "fallback.spec.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.suite))
			assert.Equal(t, FileName(tt.suite), FileName(tt.suite))
		})
	}
}

func project() schema.ProjectMeta {
	m := schema.DefaultMeta("demo")
	m.Suites = []schema.TestSuite{
		{
			Name: "Login",
			Cases: []schema.TestCase{{
				Name: "succeeds",
				Actions: []schema.Action{
					{Type: schema.ActionGoto, URL: "https://x"},
					{Type: schema.ActionFill, Selector: "#user", Value: "bob"},
					{Type: schema.ActionClick, Selector: "#submit"},
				},
			}},
		},
		{Name: "Evil", File: "../../evil.ts", Cases: []schema.TestCase{}},
	}
	return m
}

func TestRegenerateWritesInsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	o := New(dir, WithLogger(zaptest.NewLogger(t)))

	report, err := o.Regenerate(project())
	require.NoError(t, err)
	assert.Len(t, report.Written, 2)

	login, err := os.ReadFile(filepath.Join(dir, "tests", "login.spec.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(login), "test.describe('Login'")

	_, err = os.Stat(filepath.Join(dir, "tests", "evil.ts"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "evil.ts"))
	assert.True(t, os.IsNotExist(err), "traversal escaped the output directory")
}

func TestRegenerateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := project()

	_, err := New(dir).Regenerate(m)
	require.NoError(t, err)
	first := readDir(t, filepath.Join(dir, "tests"))

	// A fresh orchestrator has a cold cache, so this re-renders from scratch.
	_, err = New(dir).Regenerate(m)
	require.NoError(t, err)
	second := readDir(t, filepath.Join(dir, "tests"))

	assert.Equal(t, first, second)
}

func TestRegenerateKeepsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	o := New(dir)
	m := project()

	_, err := o.Regenerate(m)
	require.NoError(t, err)

	m.Suites = m.Suites[1:]
	_, err = o.Regenerate(m)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "tests", "login.spec.ts"))
	assert.NoError(t, err, "regeneration must not delete files of removed suites")

	orphans, err := o.Orphans(m)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "tests", "login.spec.ts")}, orphans)

	removed, err := o.Prune(m)
	require.NoError(t, err)
	assert.Equal(t, orphans, removed)
	_, err = os.Stat(filepath.Join(dir, "tests", "login.spec.ts"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegenerateDuplicateFileNames(t *testing.T) {
	dir := t.TempDir()
	m := schema.DefaultMeta("demo")
	m.Suites = []schema.TestSuite{
		{Name: "Cart Page", Cases: []schema.TestCase{{Name: "first"}}},
		{Name: "cart-page", Cases: []schema.TestCase{{Name: "second"}}},
	}

	report, err := New(dir).Regenerate(m)
	assert.True(t, errors.Is(err, ErrDuplicateFile), "got %v", err)
	assert.Len(t, report.Written, 1)
	assert.Contains(t, report.Failed, "cart-page")

	data, err := os.ReadFile(filepath.Join(dir, "tests", "cart_page.spec.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "'first'")
}

func TestRegenerateStrictContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	m := project()
	m.Suites = append([]schema.TestSuite{{
		Name:  "Broken",
		Cases: []schema.TestCase{{Name: "bad", Actions: []schema.Action{{Type: "teleport"}}}},
	}}, m.Suites...)

	report, err := New(dir, WithStrict(true)).Regenerate(m)
	var renderErr *schema.RenderError
	assert.True(t, errors.As(err, &renderErr), "got %v", err)
	assert.Len(t, report.Written, 2)
	assert.Contains(t, report.Failed, "Broken")
}

func TestRegenerateReportsInvalidActions(t *testing.T) {
	dir := t.TempDir()
	m := project()
	m.Suites[0].Cases[0].Actions = append(m.Suites[0].Cases[0].Actions,
		schema.Action{Type: schema.ActionClick},
		schema.Action{Type: schema.ActionGoto})

	report, err := New(dir).Regenerate(m)
	require.NoError(t, err)
	assert.Len(t, report.Written, len(m.Suites))
	require.Contains(t, report.Invalid, m.Suites[0].Name)
	assert.Len(t, report.Invalid[m.Suites[0].Name], 2)
	assert.Len(t, report.Invalid, 1)

	data, err := os.ReadFile(report.Written[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "// invalid action:")
	assert.NotContains(t, string(data), "page.locator('')")
}

func TestOrphansIgnoresNonScripts(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tests")
	require.NoError(t, os.MkdirAll(out, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "helpers.ts"), []byte("export {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "old.spec.ts"), []byte(""), 0644))

	orphans, err := New(dir).Orphans(schema.DefaultMeta("demo"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "old.spec.ts")}, orphans)
}

func readDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}
