package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fentz26/blockwright/internal/schema"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Edit the actions of a case or suite hook",
}

var actionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert an action",
	Args:  cobra.NoArgs,
	RunE:  runActionAdd,
}

var actionMoveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move an action to a new position",
	Args:  cobra.NoArgs,
	RunE:  runActionMove,
}

var actionRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove an action",
	Args:  cobra.NoArgs,
	RunE:  runActionRm,
}

var (
	actSuite    string
	actCase     string
	actHook     string
	actIndex    int
	actRmIndex  int
	actFrom     int
	actTo       int
	actType     string
	actSelector string
	actLocator  string
	actURL      string
	actValue    string
	actKey      string
	actFiles    []string
	actTimeout  int
)

func init() {
	actionCmd.AddCommand(actionAddCmd, actionMoveCmd, actionRmCmd)

	for _, c := range []*cobra.Command{actionAddCmd, actionMoveCmd, actionRmCmd} {
		c.Flags().StringVar(&actSuite, "suite", "", "Suite name (required)")
		c.Flags().StringVar(&actCase, "case", "", "Case name")
		c.Flags().StringVar(&actHook, "hook", "", "Suite hook: beforeAll, beforeEach, afterEach or afterAll")
		c.MarkFlagRequired("suite")
		c.MarkFlagsMutuallyExclusive("case", "hook")
		c.MarkFlagsOneRequired("case", "hook")
	}

	actionAddCmd.Flags().IntVar(&actIndex, "index", -1, "Position to insert at (-1 appends)")
	actionAddCmd.Flags().StringVar(&actType, "type", "", "Action type (goto, fill, click, dblclick, hover, press, check, uncheck, selectOption, setInputFiles, screenshot, wait)")
	actionAddCmd.Flags().StringVar(&actSelector, "selector", "", "Literal element selector")
	actionAddCmd.Flags().StringVar(&actLocator, "locator", "", "Locator reference as page.key, resolved now")
	actionAddCmd.Flags().StringVar(&actURL, "url", "", "URL for goto")
	actionAddCmd.Flags().StringVar(&actValue, "value", "", "Value for fill or selectOption, path for screenshot")
	actionAddCmd.Flags().StringVar(&actKey, "key", "", "Key for press")
	actionAddCmd.Flags().StringSliceVar(&actFiles, "files", nil, "Files for setInputFiles")
	actionAddCmd.Flags().IntVar(&actTimeout, "timeout", 0, "Timeout in milliseconds (wait duration for wait)")
	actionAddCmd.MarkFlagRequired("type")
	actionAddCmd.MarkFlagsMutuallyExclusive("selector", "locator")

	actionMoveCmd.Flags().IntVar(&actFrom, "from", 0, "Current position")
	actionMoveCmd.Flags().IntVar(&actTo, "to", 0, "New position")
	actionMoveCmd.MarkFlagRequired("from")
	actionMoveCmd.MarkFlagRequired("to")

	actionRmCmd.Flags().IntVar(&actRmIndex, "index", 0, "Position to remove")
	actionRmCmd.MarkFlagRequired("index")
}

func actionTarget() (schema.ActionTarget, error) {
	t := schema.ActionTarget{Suite: actSuite, Case: actCase, Hook: schema.HookPhase(actHook)}
	if actHook != "" && !t.Hook.Valid() {
		return t, fmt.Errorf("invalid --hook %q, want beforeAll, beforeEach, afterEach or afterAll", actHook)
	}
	return t, nil
}

func runActionAdd(cmd *cobra.Command, args []string) error {
	target, err := actionTarget()
	if err != nil {
		return err
	}

	edit := schema.InsertAction{
		Target: target,
		Index:  actIndex,
		Action: schema.Action{
			Type:     schema.ActionType(actType),
			URL:      actURL,
			Selector: actSelector,
			Value:    actValue,
			Key:      actKey,
			Files:    actFiles,
			Timeout:  actTimeout,
		},
	}
	if actLocator != "" {
		ref, err := schema.ParseLocatorRef(actLocator)
		if err != nil {
			return err
		}
		edit.Locator = &ref
	}
	return applyEdit(edit, fmt.Sprintf("Added %s to %s", actType, target))
}

func runActionMove(cmd *cobra.Command, args []string) error {
	target, err := actionTarget()
	if err != nil {
		return err
	}
	edit := schema.MoveAction{Target: target, From: actFrom, To: actTo}
	return applyEdit(edit, fmt.Sprintf("Moved action %d to %d in %s", actFrom, actTo, target))
}

func runActionRm(cmd *cobra.Command, args []string) error {
	target, err := actionTarget()
	if err != nil {
		return err
	}
	edit := schema.RemoveAction{Target: target, Index: actRmIndex}
	return applyEdit(edit, fmt.Sprintf("Removed action %d from %s", actRmIndex, target))
}
