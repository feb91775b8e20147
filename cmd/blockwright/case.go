package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/blockwright/internal/schema"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage test cases",
}

var caseAddCmd = &cobra.Command{
	Use:   "add [suite] [name]",
	Short: "Add a test case to a suite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := schema.TestCase{Name: args[1], Tags: caseTags}
		return applyEdit(schema.AddCase{Suite: args[0], Case: c}, fmt.Sprintf("Added case %q to %q", args[1], args[0]))
	},
}

var caseRmCmd = &cobra.Command{
	Use:   "rm [suite] [name]",
	Short: "Remove a test case",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RemoveCase{Suite: args[0], Case: args[1]}, fmt.Sprintf("Removed case %q from %q", args[1], args[0]))
	},
}

var caseRenameCmd = &cobra.Command{
	Use:   "rename [suite] [from] [to]",
	Short: "Rename a test case",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit := schema.RenameCase{Suite: args[0], From: args[1], To: args[2]}
		return applyEdit(edit, fmt.Sprintf("Renamed case %q to %q", args[1], args[2]))
	},
}

var caseTagCmd = &cobra.Command{
	Use:   "tag [suite] [case] [tags...]",
	Short: "Replace the tags of a test case (smoke, regression, ...)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := args[2:]
		edit := schema.SetCaseTags{Suite: args[0], Case: args[1], Tags: tags}
		return applyEdit(edit, fmt.Sprintf("Tagged %q: [%s]", args[1], strings.Join(tags, ", ")))
	},
}

var caseTags []string

func init() {
	caseCmd.AddCommand(caseAddCmd, caseRmCmd, caseRenameCmd, caseTagCmd)

	caseAddCmd.Flags().StringSliceVar(&caseTags, "tag", nil, "Tags for the new case (repeatable)")
}
