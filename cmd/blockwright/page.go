package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/blockwright/internal/schema"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Manage page objects",
}

var pageAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a page object",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageAdd,
}

var pageRmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Remove a page object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RemovePage{Name: args[0]}, fmt.Sprintf("Removed page %q", args[0]))
	},
}

var pageRenameCmd = &cobra.Command{
	Use:   "rename [from] [to]",
	Short: "Rename a page object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RenamePage{From: args[0], To: args[1]}, fmt.Sprintf("Renamed page %q to %q", args[0], args[1]))
	},
}

var locatorCmd = &cobra.Command{
	Use:   "locator",
	Short: "Manage page locators",
}

var locatorSetCmd = &cobra.Command{
	Use:   "set [page] [key] [selector]",
	Short: "Set a locator key on a page",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit := schema.SetLocator{Page: args[0], Key: args[1], Selector: args[2]}
		return applyEdit(edit, fmt.Sprintf("Set %s.%s = %s", args[0], args[1], args[2]))
	},
}

var locatorRmCmd = &cobra.Command{
	Use:   "rm [page] [key]",
	Short: "Remove a locator key from a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyEdit(schema.RemoveLocator{Page: args[0], Key: args[1]}, fmt.Sprintf("Removed %s.%s", args[0], args[1]))
	},
}

var (
	pageFile      string
	pageSelectors []string
)

func init() {
	pageCmd.AddCommand(pageAddCmd, pageRmCmd, pageRenameCmd, locatorCmd)
	locatorCmd.AddCommand(locatorSetCmd, locatorRmCmd)

	pageAddCmd.Flags().StringVar(&pageFile, "file", "", "Page object file name")
	pageAddCmd.Flags().StringArrayVar(&pageSelectors, "selector", nil, "Locator as key=selector (repeatable)")
}

func runPageAdd(cmd *cobra.Command, args []string) error {
	selectors, err := parseSelectors(pageSelectors)
	if err != nil {
		return err
	}
	page := schema.PageObject{Name: args[0], File: pageFile, Selectors: selectors}
	return applyEdit(schema.AddPage{Page: page}, fmt.Sprintf("Added page %q with %d locators", args[0], len(selectors)))
}

func parseSelectors(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid --selector %q, want key=selector", p)
		}
		out[k] = v
	}
	return out, nil
}
