package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate every suite script",
	Long: `Regenerate rewrites tests/<suite>.spec.ts for every suite. Scripts that
no suite maps to anymore are reported, and deleted with --prune.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var prune bool

func init() {
	generateCmd.Flags().BoolVar(&prune, "prune", false, "Delete scripts no suite maps to")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Regenerate(prune)
	if res != nil && res.Report != nil {
		for _, f := range res.Report.Written {
			fmt.Printf("%s %s\n", okStyle.Render("✓"), f)
		}
		suites := make([]string, 0, len(res.Report.Failed))
		for s := range res.Report.Failed {
			suites = append(suites, s)
		}
		sort.Strings(suites)
		for _, s := range suites {
			fmt.Printf("%s %s: %s\n", errorStyle.Render("✗"), s, res.Report.Failed[s])
		}
		invalid := make([]string, 0, len(res.Report.Invalid))
		for s := range res.Report.Invalid {
			invalid = append(invalid, s)
		}
		sort.Strings(invalid)
		for _, s := range invalid {
			fmt.Printf("%s %s: actions commented out\n", warnStyle.Render("!"), s)
			for _, p := range res.Report.Invalid[s] {
				fmt.Println(mutedStyle.Render("    " + p))
			}
		}
		for _, f := range res.Orphans {
			fmt.Printf("%s orphaned %s (remove with --prune)\n", warnStyle.Render("!"), f)
		}
		for _, f := range res.Pruned {
			fmt.Printf("%s pruned %s\n", warnStyle.Render("-"), f)
		}
	}
	return err
}
