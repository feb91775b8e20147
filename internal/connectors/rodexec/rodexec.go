// Package rodexec is an in-process engine that drives Chromium over the
// DevTools protocol and interprets a suite's actions directly, without the
// Playwright runner.
package rodexec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/connectors/interp"
	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/schema"
)

// SuiteSource provides the schema the engine interprets.
type SuiteSource interface {
	Load() (schema.ProjectMeta, error)
}

// Config tunes the launched browser.
type Config struct {
	Bin        string
	NoSandbox  bool
	SlowMotion time.Duration
}

// Engine implements connectors.Engine on go-rod.
type Engine struct {
	dir string
	src SuiteSource
	cfg Config
	log *zap.Logger
}

var _ connectors.Engine = (*Engine)(nil)

// New creates an engine for the project at projectDir.
func New(projectDir string, src SuiteSource, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{dir: projectDir, src: src, cfg: cfg, log: log}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return "rod"
}

// SupportsTarget reports whether the engine can drive target.
func SupportsTarget(target string) bool {
	switch target {
	case "chromium", "chrome":
		return true
	}
	return false
}

// Run interprets the requested suite, or one case of it, in a fresh browser.
func (e *Engine) Run(ctx context.Context, req models.RunRequest) (*connectors.ExecResult, error) {
	if !SupportsTarget(req.Target) {
		return nil, fmt.Errorf("%w: %s (rod drives chromium only)", connectors.ErrUnsupportedTarget, req.Target)
	}

	meta, err := e.src.Load()
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	plan, err := interp.Lookup(meta, req)
	if err != nil {
		return nil, err
	}

	l := launcher.New().Context(ctx).Headless(req.Headless).NoSandbox(e.cfg.NoSandbox)
	if e.cfg.Bin != "" {
		l = l.Bin(e.cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if e.cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(e.cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	d := &driver{browser: browser, timeout: interp.ActionTimeout(meta.Env)}
	r := interp.NewRunner(d, e.dir, plan, e.log.With(zap.String("suite", req.Suite), zap.String("target", req.Target)))
	failed := r.Run(ctx)
	return r.Result(e.Name(), []string{req.File, req.Target}, failed), nil
}

type driver struct {
	browser *rod.Browser
	timeout time.Duration
}

func (d *driver) NewPage(ctx context.Context) (interp.Page, error) {
	p, err := d.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	return &page{page: p, timeout: d.timeout}, nil
}

type page struct {
	page    *rod.Page
	timeout time.Duration
}

func (pg *page) Close() error {
	return pg.page.Close()
}

func (pg *page) Do(ctx context.Context, a schema.Action, shot string) error {
	p := pg.page.Context(ctx).Timeout(pg.timeout)
	defer p.CancelTimeout()

	if a.Type == schema.ActionGoto {
		if err := p.Navigate(a.URL); err != nil {
			return fmt.Errorf("navigate %s: %w", a.URL, err)
		}
		return p.WaitLoad()
	}

	el, err := p.Element(a.Selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", a.Selector, err)
	}

	switch a.Type {
	case schema.ActionFill:
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(a.Value)
	case schema.ActionClick:
		return el.Click(proto.InputMouseButtonLeft, 1)
	case schema.ActionDblclick:
		return el.Click(proto.InputMouseButtonLeft, 2)
	case schema.ActionHover:
		return el.Hover()
	case schema.ActionPress:
		mods, key, err := KeyFor(a.Key)
		if err != nil {
			return err
		}
		if err := el.Focus(); err != nil {
			return err
		}
		return p.KeyActions().Press(mods...).Type(key).Do()
	case schema.ActionCheck, schema.ActionUncheck:
		want := a.Type == schema.ActionCheck
		checked, err := el.Property("checked")
		if err != nil {
			return err
		}
		if checked.Bool() == want {
			return nil
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	case schema.ActionSelectOption:
		// Playwright matches the option value first, then its label.
		if err := el.Select([]string{OptionValueSelector(a.Value)}, true, rod.SelectorTypeCSSSector); err == nil {
			return nil
		}
		return el.Select([]string{a.Value}, true, rod.SelectorTypeText)
	case schema.ActionSetInputFiles:
		return el.SetFiles(a.Files)
	case schema.ActionScreenshot:
		data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		_, err = interp.SaveScreenshot(data, shot)
		return err
	}
	return &schema.RenderError{Type: a.Type, Reason: "unsupported by rod engine"}
}

func (pg *page) FailureShot(path string) error {
	data, err := pg.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return err
	}
	return interp.WriteFile(path, data)
}

// OptionValueSelector returns a CSS selector for the option whose value
// attribute is exactly v.
func OptionValueSelector(v string) string {
	var b strings.Builder
	b.WriteString(`option[value="`)
	for _, r := range v {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(`"]`)
	return b.String()
}

var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"Space":      input.Space,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
}

var modifierKeys = map[string]input.Key{
	"Control": input.ControlLeft,
	"Shift":   input.ShiftLeft,
	"Alt":     input.AltLeft,
	"Meta":    input.MetaLeft,
}

// KeyFor parses a Playwright key description such as "Enter", "a" or
// "Control+Shift+K" into held modifiers and the typed key.
func KeyFor(desc string) ([]input.Key, input.Key, error) {
	var parts []string
	switch {
	case desc == "":
		return nil, 0, fmt.Errorf("empty key")
	case desc == "+":
		parts = []string{"+"}
	case strings.HasSuffix(desc, "++"):
		parts = append(strings.Split(strings.TrimSuffix(desc, "++"), "+"), "+")
	default:
		parts = strings.Split(desc, "+")
	}

	var mods []input.Key
	for _, m := range parts[:len(parts)-1] {
		k, ok := modifierKeys[m]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier %q in key %q", m, desc)
		}
		mods = append(mods, k)
	}

	last := parts[len(parts)-1]
	if k, ok := namedKeys[last]; ok {
		return mods, k, nil
	}
	if k, ok := modifierKeys[last]; ok {
		return mods, k, nil
	}
	if r := []rune(last); len(r) == 1 {
		return mods, input.Key(r[0]), nil
	}
	return nil, 0, fmt.Errorf("unknown key %q", desc)
}
