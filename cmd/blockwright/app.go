package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/audit"
	"github.com/fentz26/blockwright/internal/config"
	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/connectors/localexec"
	"github.com/fentz26/blockwright/internal/connectors/pwexec"
	"github.com/fentz26/blockwright/internal/connectors/rodexec"
	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/logging"
	"github.com/fentz26/blockwright/internal/project"
	"github.com/fentz26/blockwright/internal/schema"
	"github.com/fentz26/blockwright/internal/store"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
)

// app bundles everything a command needs for one project.
type app struct {
	dir   string
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	pdr   *audit.PDRWriter
	svc   *project.Service
}

func openApp() (*app, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}

	log, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.HistoryPath(dir))
	if err != nil {
		return nil, err
	}
	if err := s.Ping(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("history database: %w", err)
	}

	pdr := audit.NewPDRWriter(s)
	log.Debug("project opened", zap.String("dir", dir), zap.String("engine", cfg.Engine))
	return &app{
		dir:   dir,
		cfg:   cfg,
		log:   log,
		store: s,
		pdr:   pdr,
		svc:   project.Open(dir, cfg.Strict, pdr, log),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.log.Sync()
}

// engine builds the configured execution engine.
func (a *app) engine() connectors.Engine {
	switch a.cfg.Engine {
	case config.EngineRod:
		return rodexec.New(a.dir, a.svc, rodexec.Config{
			Bin:        a.cfg.Rod.Bin,
			NoSandbox:  a.cfg.Rod.NoSandbox,
			SlowMotion: a.cfg.Rod.SlowMotion(),
		}, a.log.Named("rod"))
	case config.EnginePlaywright:
		return pwexec.New(a.dir, a.svc, pwexec.Config{
			Install:    a.cfg.Playwright.Install,
			SlowMotion: a.cfg.Playwright.SlowMotion(),
		}, a.log.Named("playwright"))
	}
	return localexec.New(a.dir)
}

func (a *app) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(a.engine(), a.store, a.pdr, &a.cfg.Dispatch, a.log.Named("dispatch"))
}

func policy() schema.ConflictPolicy {
	if replace {
		return schema.Replace
	}
	return schema.Abort
}

// applyEdit applies one schema edit to the project and reports it.
func applyEdit(edit schema.Edit, done string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.svc.Apply(edit, policy()); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("✓ ") + done)
	return nil
}
