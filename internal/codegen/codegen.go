// Package codegen renders a test suite into a Playwright Test script.
//
// Rendering is a pure function of its input: the same suite and environment
// always produce byte-identical source.
package codegen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/blockwright/internal/schema"
)

const indentUnit = "  "

// Generator renders suites for one project environment.
type Generator struct {
	Env schema.Env
	// Strict rejects actions that fail validation instead of rendering
	// them as comments.
	Strict bool
}

// New creates a generator. A non-empty base URL and a positive timeout are
// emitted as suite-level test options.
func New(env schema.Env) *Generator {
	return &Generator{Env: env}
}

// Render renders suite without any environment options.
func Render(suite schema.TestSuite) (string, error) {
	return (&Generator{}).Render(suite)
}

// Render returns the script source for suite.
func (g *Generator) Render(suite schema.TestSuite) (string, error) {
	if g.Strict {
		if err := validateSuite(suite); err != nil {
			return "", err
		}
	}

	var b strings.Builder

	b.WriteString("import { test, expect } from '@playwright/test';\n\n")
	fmt.Fprintf(&b, "test.describe(%s, () => {\n", Quote(suite.Name))

	if opts := g.useOptions(); opts != "" {
		fmt.Fprintf(&b, "%stest.use({ %s });\n\n", indentUnit, opts)
	}

	for _, phase := range []schema.HookPhase{schema.BeforeAll, schema.BeforeEach} {
		writeHook(&b, phase, suite.Hooks[phase])
	}

	for i, c := range suite.Cases {
		if i > 0 {
			b.WriteString("\n")
		}
		writeCase(&b, c)
	}

	for _, phase := range []schema.HookPhase{schema.AfterEach, schema.AfterAll} {
		if len(suite.Hooks[phase]) > 0 {
			b.WriteString("\n")
		}
		writeHook(&b, phase, suite.Hooks[phase])
	}

	b.WriteString("});\n")
	return b.String(), nil
}

func (g *Generator) useOptions() string {
	var parts []string
	if g.Env.BaseURL != "" {
		parts = append(parts, "baseURL: "+Quote(g.Env.BaseURL))
	}
	if g.Env.Timeout > 0 {
		parts = append(parts, "actionTimeout: "+strconv.Itoa(g.Env.Timeout))
	}
	return strings.Join(parts, ", ")
}

// writeHook renders one lifecycle hook. Suite-scoped hooks have no page
// fixture, so they open and close their own page.
func writeHook(b *strings.Builder, phase schema.HookPhase, actions []schema.Action) {
	if len(actions) == 0 {
		return
	}
	in := indentUnit + indentUnit
	switch phase {
	case schema.BeforeAll, schema.AfterAll:
		fmt.Fprintf(b, "%stest.%s(async ({ browser }) => {\n", indentUnit, phase)
		fmt.Fprintf(b, "%sconst page = await browser.newPage();\n", in)
		writeActions(b, in, actions)
		fmt.Fprintf(b, "%sawait page.close();\n", in)
	default:
		fmt.Fprintf(b, "%stest.%s(async ({ page }) => {\n", indentUnit, phase)
		writeActions(b, in, actions)
	}
	fmt.Fprintf(b, "%s});\n", indentUnit)
	if phase == schema.BeforeAll || phase == schema.BeforeEach {
		b.WriteString("\n")
	}
}

func writeCase(b *strings.Builder, c schema.TestCase) {
	details := ""
	if len(c.Tags) > 0 {
		tags := make([]string, len(c.Tags))
		for i, t := range c.Tags {
			tags[i] = Quote("@" + t)
		}
		details = fmt.Sprintf("{ tag: [%s] }, ", strings.Join(tags, ", "))
	}
	fmt.Fprintf(b, "%stest(%s, %sasync ({ page }) => {\n", indentUnit, Quote(c.Name), details)
	writeActions(b, indentUnit+indentUnit, c.Actions)
	fmt.Fprintf(b, "%s});\n", indentUnit)
}

func writeActions(b *strings.Builder, indent string, actions []schema.Action) {
	for _, a := range actions {
		b.WriteString(indent)
		b.WriteString(Statement(a))
		b.WriteString("\n")
	}
}

func validateSuite(suite schema.TestSuite) error {
	for _, phase := range schema.HookPhases {
		for _, a := range suite.Hooks[phase] {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("suite %q %s: %w", suite.Name, phase, err)
			}
		}
	}
	for _, c := range suite.Cases {
		for _, a := range c.Actions {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("suite %q case %q: %w", suite.Name, c.Name, err)
			}
		}
	}
	return nil
}

// Problems lists every action of suite that fails validation, located by
// hook or case and step number. Non-strict rendering comments these out.
func Problems(suite schema.TestSuite) []string {
	var out []string
	for _, phase := range schema.HookPhases {
		for i, a := range suite.Hooks[phase] {
			if err := a.Validate(); err != nil {
				out = append(out, fmt.Sprintf("%s step %d: %v", phase, i+1, err))
			}
		}
	}
	for _, c := range suite.Cases {
		for i, a := range c.Actions {
			if err := a.Validate(); err != nil {
				out = append(out, fmt.Sprintf("case %q step %d: %v", c.Name, i+1, err))
			}
		}
	}
	return out
}

// Statement renders a single action. Unknown action types and actions
// missing a required field become a comment so they stay visible in the
// output without producing a broken call.
func Statement(a schema.Action) string {
	if !a.Type.Known() {
		return "// unsupported action: " + commentSafe(string(a.Type))
	}
	if err := a.Validate(); err != nil {
		reason := err.Error()
		var re *schema.RenderError
		if errors.As(err, &re) {
			reason = string(a.Type) + ": " + re.Reason
		}
		return "// invalid action: " + commentSafe(reason)
	}

	loc := "page.locator(" + Quote(a.Selector) + ")"
	switch a.Type {
	case schema.ActionGoto:
		return "await page.goto(" + Quote(a.URL) + ");"
	case schema.ActionFill:
		return "await " + loc + ".fill(" + Quote(a.Value) + ");"
	case schema.ActionClick, schema.ActionDblclick, schema.ActionHover,
		schema.ActionCheck, schema.ActionUncheck:
		return "await " + loc + "." + string(a.Type) + "();"
	case schema.ActionPress:
		return "await " + loc + ".press(" + Quote(a.Key) + ");"
	case schema.ActionSelectOption:
		return "await " + loc + ".selectOption(" + Quote(a.Value) + ");"
	case schema.ActionSetInputFiles:
		files := make([]string, len(a.Files))
		for i, f := range a.Files {
			files[i] = Quote(f)
		}
		return "await " + loc + ".setInputFiles([" + strings.Join(files, ", ") + "]);"
	case schema.ActionScreenshot:
		return "await " + loc + ".screenshot();"
	case schema.ActionWait:
		return "await page.waitForTimeout(" + strconv.Itoa(a.Timeout) + ");"
	default:
		return "// unsupported action: " + commentSafe(string(a.Type))
	}
}

// Quote returns s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// commentSafe keeps an arbitrary string on one comment line.
func commentSafe(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '\u2028' || r == '\u2029' {
			return ' '
		}
		return r
	}, s)
	if s == "" {
		return `""`
	}
	return strconv.Quote(s)
}
