package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fentz26/blockwright/internal/schema"
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Manage test suites",
}

var suiteAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a test suite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suite := schema.TestSuite{Name: args[0], File: suiteFile}
		return applyEdit(schema.AddSuite{Suite: suite}, fmt.Sprintf("Added suite %q", args[0]))
	},
}

var suiteRmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Remove a test suite (its script stays until generate --prune)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RemoveSuite{Name: args[0]}, fmt.Sprintf("Removed suite %q", args[0]))
	},
}

var suiteRenameCmd = &cobra.Command{
	Use:   "rename [from] [to]",
	Short: "Rename a test suite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RenameSuite{From: args[0], To: args[1]}, fmt.Sprintf("Renamed suite %q to %q", args[0], args[1]))
	},
}

var suiteFileCmd = &cobra.Command{
	Use:   "file [suite] [file]",
	Short: "Set the script file a suite generates (empty derives it from the name)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.SetSuiteFile{Suite: args[0], File: args[1]}, fmt.Sprintf("Suite %q now writes %s", args[0], orNone(args[1])))
	},
}

var suiteFile string

func init() {
	suiteCmd.AddCommand(suiteAddCmd, suiteRmCmd, suiteRenameCmd, suiteFileCmd)

	suiteAddCmd.Flags().StringVar(&suiteFile, "file", "", "Script file name (default derived from the suite name)")
}
