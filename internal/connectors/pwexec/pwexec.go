// Package pwexec is an in-process engine built on playwright-go. Unlike the
// rod engine it drives all three Playwright browsers, but it still interprets
// actions itself instead of running the generated scripts.
package pwexec

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
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

// Config tunes the launched browsers.
type Config struct {
	// Install downloads the driver and the target browser before launch.
	Install    bool
	SlowMotion time.Duration
}

// Engine implements connectors.Engine on playwright-go.
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
	return "playwright"
}

// browserFor maps a target to its Playwright browser and release channel.
func browserFor(target string) (browser, channel string, ok bool) {
	switch target {
	case "chromium", "firefox", "webkit":
		return target, "", true
	case "chrome", "msedge":
		return "chromium", target, true
	}
	return "", "", false
}

// SupportsTarget reports whether the engine can drive target.
func SupportsTarget(target string) bool {
	_, _, ok := browserFor(target)
	return ok
}

// Run interprets the requested suite, or one case of it, in a fresh browser.
func (e *Engine) Run(ctx context.Context, req models.RunRequest) (*connectors.ExecResult, error) {
	name, channel, ok := browserFor(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", connectors.ErrUnsupportedTarget, req.Target)
	}

	meta, err := e.src.Load()
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	plan, err := interp.Lookup(meta, req)
	if err != nil {
		return nil, err
	}

	if e.cfg.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{name}}); err != nil {
			return nil, fmt.Errorf("install %s: %w", name, err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	bt := pw.Chromium
	switch name {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	}
	opts := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(req.Headless)}
	if channel != "" {
		opts.Channel = playwright.String(channel)
	}
	if e.cfg.SlowMotion > 0 {
		opts.SlowMo = playwright.Float(float64(e.cfg.SlowMotion.Milliseconds()))
	}
	browser, err := bt.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", req.Target, err)
	}
	defer browser.Close()

	// playwright-go calls take no context; closing the browser unblocks them.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			browser.Close()
		case <-done:
		}
	}()

	bctx, err := browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(interp.ActionTimeout(meta.Env).Milliseconds()))

	r := interp.NewRunner(&driver{bctx: bctx}, e.dir, plan, e.log.With(zap.String("suite", req.Suite), zap.String("target", req.Target)))
	failed := r.Run(ctx)
	return r.Result(e.Name(), []string{req.File, req.Target}, failed), nil
}

type driver struct {
	bctx playwright.BrowserContext
}

func (d *driver) NewPage(ctx context.Context) (interp.Page, error) {
	p, err := d.bctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &page{page: p}, nil
}

type page struct {
	page playwright.Page
}

func (pg *page) Close() error {
	return pg.page.Close()
}

func (pg *page) Do(ctx context.Context, a schema.Action, shot string) error {
	if a.Type == schema.ActionGoto {
		if _, err := pg.page.Goto(a.URL); err != nil {
			return fmt.Errorf("navigate %s: %w", a.URL, err)
		}
		return nil
	}

	loc := pg.page.Locator(a.Selector)
	switch a.Type {
	case schema.ActionFill:
		return loc.Fill(a.Value)
	case schema.ActionClick:
		return loc.Click()
	case schema.ActionDblclick:
		return loc.Dblclick()
	case schema.ActionHover:
		return loc.Hover()
	case schema.ActionPress:
		return loc.Press(a.Key)
	case schema.ActionCheck:
		return loc.Check()
	case schema.ActionUncheck:
		return loc.Uncheck()
	case schema.ActionSelectOption:
		_, err := loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{a.Value}})
		return err
	case schema.ActionSetInputFiles:
		return loc.SetInputFiles(a.Files)
	case schema.ActionScreenshot:
		data, err := loc.Screenshot()
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		_, err = interp.SaveScreenshot(data, shot)
		return err
	}
	return &schema.RenderError{Type: a.Type, Reason: "unsupported by playwright engine"}
}

func (pg *page) FailureShot(path string) error {
	data, err := pg.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(80),
	})
	if err != nil {
		return err
	}
	return interp.WriteFile(path, data)
}
