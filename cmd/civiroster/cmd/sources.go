package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Prints the supported government bodies.",
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Source", "Organization"})

		for _, name := range sourceNames() {
			t.AppendRow(table.Row{name, registry[name].organization})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
