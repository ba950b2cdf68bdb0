package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsmtools/hsmcheck/internal/catalog"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List the diagnostic sub-tests in the catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cat := catalog.New(catalog.DefaultOptions())
		for _, id := range cat.IDs() {
			def, _ := cat.Lookup(id)
			kind := "pattern"
			if def.Check != nil {
				kind = "semantic"
			}
			fmt.Printf("%3d  %-35s %s\n", def.ID, def.Label, kind)
		}
	},
}

func init() {
	rootCmd.AddCommand(probesCmd)
}
