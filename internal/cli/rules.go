package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/patterns"
)

var (
	flagRulesVerbose bool
	flagRulesJSON    bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the static pattern rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := patterns.LoadCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if flagRulesJSON {
			data, err := json.MarshalIndent(catalog.Rules, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tSEVERITY\tCATEGORY\tTITLE")
		for _, e := range catalog.Rules {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Severity, e.Category, e.Title)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if flagRulesVerbose {
			for _, e := range catalog.Rules {
				fmt.Fprintf(out, "\n%s: %s\n\n%s\n", e.Code, e.Title, strings.TrimSpace(e.Description))
			}
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().BoolVarP(&flagRulesVerbose, "verbose", "v", false, "Print rule descriptions")
	rulesCmd.Flags().BoolVar(&flagRulesJSON, "json", false, "Print the catalog as JSON")
}
