package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/selection"
	"github.com/fentz26/blockwright/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run suites and cases against the configured browsers",
	Long: `Run expands the selection for a mode into run requests and dispatches them
all at once. In selected mode, every case runs unless --suite or --case narrows
it; smoke and regression modes run the cases tagged that way.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick suites, cases and browsers interactively, then run them",
	Args:  cobra.NoArgs,
	RunE:  runSelect,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	runMode     string
	runSuites   []string
	runCases    []string
	runBrowsers []string
	runHeaded   bool

	historyBatch string
	historyLast  bool
	historyLimit int
)

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "selected", "Run mode: selected, smoke or regression")
	runCmd.Flags().StringSliceVar(&runSuites, "suite", nil, "Limit to suites (repeatable)")
	runCmd.Flags().StringSliceVar(&runCases, "case", nil, "Limit to cases as suite/case (repeatable)")
	runCmd.Flags().StringSliceVar(&runBrowsers, "browser", nil, "Browsers to run on (default: default_browser)")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "Show the browser window")

	selectCmd.Flags().StringVar(&runMode, "mode", "selected", "Initial run mode")
	selectCmd.Flags().BoolVar(&runHeaded, "headed", false, "Show the browser window")

	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "Only runs of this batch")
	historyCmd.Flags().BoolVar(&historyLast, "last", false, "Only runs of the latest batch")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
}

func runRun(cmd *cobra.Command, args []string) error {
	mode, err := dispatch.ParseMode(runMode)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.svc.Matrix(a.cfg.Browsers)
	if err != nil {
		return err
	}
	filter := runFilter{Suites: runSuites, Cases: runCases, Browsers: runBrowsers}
	if err := filter.apply(m, mode); err != nil {
		return err
	}
	return a.dispatch(cmd.Context(), m, mode)
}

func runSelect(cmd *cobra.Command, args []string) error {
	mode, err := dispatch.ParseMode(runMode)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.svc.Matrix(a.cfg.Browsers)
	if err != nil {
		return err
	}
	res, err := tui.Run(m, tui.Options{
		Project:       a.svc.Name(),
		Mode:          mode,
		DefaultTarget: a.cfg.DefaultBrowser,
		Cascade:       true,
	})
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if !res.Confirmed {
		fmt.Println(mutedStyle.Render("Cancelled"))
		return nil
	}
	return a.dispatch(cmd.Context(), res.Matrix, res.Mode)
}

// dispatch expands m and runs every request, printing a summary.
func (a *app) dispatch(ctx context.Context, m *selection.Matrix, mode dispatch.Mode) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reqs := dispatch.Expand(m, mode, dispatch.ExpandOptions{
		DefaultTarget: a.cfg.DefaultBrowser,
		Headless:      a.cfg.Headless && !runHeaded,
		BatchID:       uuid.New().String(),
	})
	if len(reqs) == 0 {
		fmt.Printf("Nothing to run in %s mode\n", mode)
		return nil
	}

	fmt.Printf("Dispatching %d runs (%s mode, %s engine, batch %s)\n", len(reqs), mode, a.cfg.Engine, truncateID(reqs[0].BatchID))
	for _, r := range reqs {
		fmt.Println(mutedStyle.Render("  → " + r.Label()))
	}

	start := time.Now()
	d := a.dispatcher()
	results, err := d.Dispatch(ctx, reqs)
	a.log.Debug("dispatch finished", zap.Int("runs", len(results)), zap.Duration("elapsed", time.Since(start)), zap.Any("stats", d.Stats()))

	passed := 0
	fmt.Println()
	for _, r := range results {
		if r.Passed() {
			passed++
			fmt.Printf("%s %s\n", okStyle.Render("✓"), r.Request.Label())
			continue
		}
		fmt.Printf("%s %s\n", errorStyle.Render("✗"), r.Request.Label())
		if r.Result != nil && r.Result.Stdout != "" {
			fmt.Println(indent(truncate(r.Result.Stdout, 2000)))
		}
		if r.Err != nil {
			fmt.Println(indent(r.Err.Error()))
		}
	}
	fmt.Printf("\n%d passed, %d failed in %s\n", passed, len(results)-passed, time.Since(start).Round(time.Millisecond))

	if err != nil {
		return fmt.Errorf("%d of %d runs failed", len(results)-passed, len(results))
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	batch := historyBatch
	if historyLast {
		if batch, err = a.store.LatestBatch(); err != nil {
			return err
		}
	}
	runs, err := a.store.ListRuns(batch, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBATCH\tSUITE\tCASE\tTARGET\tENGINE\tSTATUS\tEXIT\tDURATION\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID), truncateID(r.BatchID), truncate(r.Suite, 30), orDash(r.Case),
			r.Target, r.Engine, r.Status, r.ExitCode,
			r.Duration().Round(time.Millisecond), r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n    ")
}
