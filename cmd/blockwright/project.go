package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/blockwright/internal/config"
	"github.com/fentz26/blockwright/internal/regen"
	"github.com/fentz26/blockwright/internal/schema"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the project metadata and config if missing",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the project environment, pages, suites and cases",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the project environment",
}

var envSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the base URL and action timeout",
	Args:  cobra.NoArgs,
	RunE:  runEnvSet,
}

var (
	envBaseURL string
	envTimeout int
)

func init() {
	envCmd.AddCommand(envSetCmd)

	envSetCmd.Flags().StringVar(&envBaseURL, "base-url", "", "Base URL relative goto actions resolve against")
	envSetCmd.Flags().IntVar(&envTimeout, "timeout", 0, "Action timeout in milliseconds (default keeps the current value)")
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	meta, created, err := a.svc.Init()
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("%s Created %s for project %q\n", okStyle.Render("✓"), filepath.Join(a.dir, "blockwright.json"), meta.Name)
	} else {
		fmt.Printf("Project %q already initialized\n", meta.Name)
	}

	cfgPath := filepath.Join(a.dir, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(cfgPath, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", okStyle.Render("✓"), cfgPath)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	meta, err := a.svc.Load()
	if err != nil {
		return err
	}

	fmt.Println(headStyle.Render(meta.Name))
	fmt.Printf("Base URL: %s\n", orNone(meta.Env.BaseURL))
	fmt.Printf("Timeout:  %dms\n", meta.Env.Timeout)
	fmt.Printf("Engine:   %s (%s)\n", a.cfg.Engine, strings.Join(a.cfg.Browsers, ", "))

	fmt.Println()
	fmt.Println(headStyle.Render("Pages"))
	if len(meta.Pages) == 0 {
		fmt.Println(mutedStyle.Render("  none"))
	}
	for _, p := range meta.Pages {
		fmt.Printf("  %s\n", p.Name)
		for _, k := range p.LocatorKeys() {
			fmt.Printf("    %-20s %s\n", k, p.Selectors[k])
		}
	}

	fmt.Println()
	fmt.Println(headStyle.Render("Suites"))
	if len(meta.Suites) == 0 {
		fmt.Println(mutedStyle.Render("  none"))
	}
	for _, s := range meta.Suites {
		fmt.Printf("  %s %s\n", s.Name, mutedStyle.Render("-> "+filepath.Join(regen.OutputDir, regen.FileName(s))))
		for _, phase := range schema.HookPhases {
			if n := len(s.Hooks[phase]); n > 0 {
				fmt.Printf("    @%s: %d actions\n", phase, n)
			}
		}
		for _, c := range s.Cases {
			tags := ""
			if len(c.Tags) > 0 {
				sorted := append([]string{}, c.Tags...)
				sort.Strings(sorted)
				tags = " " + warnStyle.Render("["+strings.Join(sorted, ", ")+"]")
			}
			fmt.Printf("    - %s%s: %d actions\n", c.Name, tags, len(c.Actions))
			for i, act := range c.Actions {
				fmt.Printf("        %d. %s\n", i, describeAction(act))
			}
		}
	}
	return nil
}

func runEnvSet(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("base-url") && !cmd.Flags().Changed("timeout") {
		return fmt.Errorf("nothing to set: pass --base-url and/or --timeout")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	meta, err := a.svc.Load()
	if err != nil {
		return err
	}
	edit := schema.SetEnv{BaseURL: meta.Env.BaseURL, Timeout: meta.Env.Timeout}
	if cmd.Flags().Changed("base-url") {
		edit.BaseURL = envBaseURL
	}
	if cmd.Flags().Changed("timeout") {
		edit.Timeout = envTimeout
	}

	if _, err := a.svc.Apply(edit, policy()); err != nil {
		return err
	}
	fmt.Printf("%s Env: base URL %s, timeout %dms\n", okStyle.Render("✓"), orNone(edit.BaseURL), edit.Timeout)
	return nil
}

func describeAction(a schema.Action) string {
	parts := []string{string(a.Type)}
	if a.URL != "" {
		parts = append(parts, a.URL)
	}
	if a.Selector != "" {
		parts = append(parts, a.Selector)
	}
	if a.Value != "" {
		parts = append(parts, fmt.Sprintf("%q", a.Value))
	}
	if a.Key != "" {
		parts = append(parts, a.Key)
	}
	if len(a.Files) > 0 {
		parts = append(parts, strings.Join(a.Files, ","))
	}
	if a.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("%dms", a.Timeout))
	}
	return strings.Join(parts, " ")
}

func orNone(s string) string {
	if s == "" {
		return mutedStyle.Render("(none)")
	}
	return s
}
