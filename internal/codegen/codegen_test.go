package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/blockwright/internal/schema"
)

func loginSuite() schema.TestSuite {
	return schema.TestSuite{
		Name: "Login",
		Cases: []schema.TestCase{{
			Name: "succeeds",
			Actions: []schema.Action{
				{Type: schema.ActionGoto, URL: "https://x"},
				{Type: schema.ActionFill, Selector: "#user", Value: "bob"},
				{Type: schema.ActionClick, Selector: "#submit"},
			},
		}},
	}
}

func TestRenderLoginSuite(t *testing.T) {
	got, err := Render(loginSuite())
	require.NoError(t, err)

	want := `import { test, expect } from '@playwright/test';

test.describe('Login', () => {
  test('succeeds', async ({ page }) => {
    await page.goto('https://x');
    await page.locator('#user').fill('bob');
    await page.locator('#submit').click();
  });
});
`
	assert.Equal(t, want, got)
}

func TestRenderIsDeterministic(t *testing.T) {
	suite := loginSuite()
	suite.Hooks = map[schema.HookPhase][]schema.Action{
		schema.AfterAll:   {{Type: schema.ActionGoto, URL: "/logout"}},
		schema.BeforeEach: {{Type: schema.ActionGoto, URL: "/"}},
		schema.BeforeAll:  {{Type: schema.ActionWait, Timeout: 100}},
		schema.AfterEach:  {{Type: schema.ActionScreenshot, Selector: "body"}},
	}
	gen := New(schema.Env{BaseURL: "https://example.test", Timeout: 5000})

	first, err := gen.Render(suite)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := gen.Render(suite)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRenderHooksInPhaseOrder(t *testing.T) {
	suite := loginSuite()
	suite.Hooks = map[schema.HookPhase][]schema.Action{
		schema.AfterAll:   {{Type: schema.ActionGoto, URL: "/bye"}},
		schema.BeforeEach: {{Type: schema.ActionGoto, URL: "/each"}},
		schema.BeforeAll:  {{Type: schema.ActionGoto, URL: "/all"}},
	}

	out, err := Render(suite)
	require.NoError(t, err)

	beforeAll := strings.Index(out, "test.beforeAll(async ({ browser }) => {")
	beforeEach := strings.Index(out, "test.beforeEach(async ({ page }) => {")
	caseDecl := strings.Index(out, "test('succeeds'")
	afterAll := strings.Index(out, "test.afterAll(async ({ browser }) => {")
	require.True(t, beforeAll >= 0 && beforeEach >= 0 && caseDecl >= 0 && afterAll >= 0, out)
	assert.Less(t, beforeAll, beforeEach)
	assert.Less(t, beforeEach, caseDecl)
	assert.Less(t, caseDecl, afterAll)
	assert.NotContains(t, out, "test.afterEach")
	assert.Contains(t, out, "const page = await browser.newPage();")
}

func TestRenderEnvOptionsAndTags(t *testing.T) {
	suite := loginSuite()
	suite.Cases[0].Tags = []string{"smoke", "regression"}

	out, err := New(schema.Env{BaseURL: "https://x", Timeout: 3000}).Render(suite)
	require.NoError(t, err)

	assert.Contains(t, out, "test.use({ baseURL: 'https://x', actionTimeout: 3000 });")
	assert.Contains(t, out, "test('succeeds', { tag: ['@smoke', '@regression'] }, async ({ page }) => {")
}

func TestStatementCoversEveryActionType(t *testing.T) {
	tests := []struct {
		action schema.Action
		want   string
	}{
		{schema.Action{Type: schema.ActionGoto, URL: "/home"}, "await page.goto('/home');"},
		{schema.Action{Type: schema.ActionFill, Selector: "#q", Value: "hi"}, "await page.locator('#q').fill('hi');"},
		{schema.Action{Type: schema.ActionClick, Selector: "#b"}, "await page.locator('#b').click();"},
		{schema.Action{Type: schema.ActionDblclick, Selector: "#b"}, "await page.locator('#b').dblclick();"},
		{schema.Action{Type: schema.ActionHover, Selector: "#b"}, "await page.locator('#b').hover();"},
		{schema.Action{Type: schema.ActionPress, Selector: "#q", Key: "Enter"}, "await page.locator('#q').press('Enter');"},
		{schema.Action{Type: schema.ActionCheck, Selector: "#c"}, "await page.locator('#c').check();"},
		{schema.Action{Type: schema.ActionUncheck, Selector: "#c"}, "await page.locator('#c').uncheck();"},
		{schema.Action{Type: schema.ActionSelectOption, Selector: "#s", Value: "red"}, "await page.locator('#s').selectOption('red');"},
		{schema.Action{Type: schema.ActionSetInputFiles, Selector: "#f", Files: []string{"a.png", "b.png"}}, "await page.locator('#f').setInputFiles(['a.png', 'b.png']);"},
		{schema.Action{Type: schema.ActionScreenshot, Selector: "#hero"}, "await page.locator('#hero').screenshot();"},
		{schema.Action{Type: schema.ActionWait, Timeout: 250}, "await page.waitForTimeout(250);"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, Statement(tt.action))
		})
	}
}

func TestUnknownActionRendersComment(t *testing.T) {
	suite := loginSuite()
	suite.Cases[0].Actions = append(suite.Cases[0].Actions, schema.Action{Type: "drag\nalert(1)"})

	out, err := Render(suite)
	require.NoError(t, err)
	assert.Contains(t, out, `    // unsupported action: "drag alert(1)"`)

	_, err = (&Generator{Strict: true}).Render(suite)
	var renderErr *schema.RenderError
	assert.True(t, errors.As(err, &renderErr), "strict render should fail with RenderError, got %v", err)
}

func TestInvalidActionRendersComment(t *testing.T) {
	tests := []struct {
		action schema.Action
		want   string
	}{
		{schema.Action{Type: schema.ActionClick}, `// invalid action: "click: selector is required"`},
		{schema.Action{Type: schema.ActionGoto}, `// invalid action: "goto: url is required"`},
		{schema.Action{Type: schema.ActionPress, Selector: "#q"}, `// invalid action: "press: key is required"`},
		{schema.Action{Type: schema.ActionSetInputFiles, Selector: "#f"}, `// invalid action: "setInputFiles: at least one file is required"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.action.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, Statement(tt.action))
		})
	}

	suite := loginSuite()
	suite.Hooks = map[schema.HookPhase][]schema.Action{
		schema.BeforeEach: {{Type: schema.ActionGoto}},
	}
	suite.Cases[0].Actions = append(suite.Cases[0].Actions, schema.Action{Type: schema.ActionClick})

	out, err := Render(suite)
	require.NoError(t, err)
	assert.NotContains(t, out, "page.locator('')")
	assert.NotContains(t, out, "page.goto('')")

	problems := Problems(suite)
	require.Len(t, problems, 2)
	assert.True(t, strings.HasPrefix(problems[0], "beforeEach step 1: "), problems[0])
	assert.Contains(t, problems[1], `case "succeeds" step`)
	assert.Contains(t, problems[1], "selector is required")
	assert.Empty(t, Problems(loginSuite()))
}

func TestQuoteProducesSingleLiteral(t *testing.T) {
	values := []string{
		"",
		"bob",
		"it's",
		`'); process.exit(1); ('`,
		`back\slash\'`,
		"line1\nline2\r\n",
		"tab\there",
		"sep\u2028para\u2029",
		"nul\x00bell\x07",
		`"double"`,
		"unicode ✓ ünï",
	}

	for _, v := range values {
		lit := Quote(v)
		decoded, rest, ok := scanLiteral(lit)
		require.True(t, ok, "literal %s did not parse", lit)
		assert.Empty(t, rest, "literal %s ended early", lit)
		assert.Equal(t, v, decoded)
		assert.NotContains(t, lit, "\n")
	}
}

func TestFillValueWithQuoteStaysInsideLiteral(t *testing.T) {
	a := schema.Action{Type: schema.ActionFill, Selector: "#name", Value: "O'Brien"}
	stmt := Statement(a)

	prefix := "await page.locator('#name').fill("
	require.True(t, strings.HasPrefix(stmt, prefix))
	decoded, rest, ok := scanLiteral(strings.TrimPrefix(stmt, prefix))
	require.True(t, ok)
	assert.Equal(t, "O'Brien", decoded)
	assert.Equal(t, ");", rest)
}

// scanLiteral reads one single-quoted JavaScript string literal from the
// start of s and returns its decoded value and the remaining input.
func scanLiteral(s string) (string, string, bool) {
	if !strings.HasPrefix(s, "'") {
		return "", s, false
	}
	var out strings.Builder
	rs := []rune(s[1:])
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\'':
			return out.String(), string(rs[i+1:]), true
		case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
			return "", "", false
		case r != '\\':
			out.WriteRune(r)
			continue
		}
		i++
		if i >= len(rs) {
			return "", "", false
		}
		switch rs[i] {
		case 'n':
			out.WriteRune('\n')
		case 'r':
			out.WriteRune('\r')
		case 't':
			out.WriteRune('\t')
		case 'x':
			if i+2 >= len(rs) {
				return "", "", false
			}
			var v rune
			for _, h := range rs[i+1 : i+3] {
				v = v*16 + hexVal(h)
			}
			out.WriteRune(v)
			i += 2
		case 'u':
			if i+4 >= len(rs) {
				return "", "", false
			}
			var v rune
			for _, h := range rs[i+1 : i+5] {
				v = v*16 + hexVal(h)
			}
			out.WriteRune(v)
			i += 4
		default:
			out.WriteRune(rs[i])
		}
	}
	return "", "", false
}

func hexVal(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r - '0'
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10
	}
	return 0
}
