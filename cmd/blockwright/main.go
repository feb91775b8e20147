package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blockwright",
	Short: "Blockwright - declarative browser tests",
	Long: `Blockwright keeps browser tests as structured data in blockwright.json,
regenerates Playwright scripts from it on every change, and dispatches the
suites and cases you select against the browsers you pick.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	projectDir string
	replace    bool
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", ".", "Project directory")
	rootCmd.PersistentFlags().BoolVar(&replace, "replace", false, "Overwrite entries whose name already exists")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(suiteCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
