package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	rosterservice "civiroster/services/roster"
	"civiroster/services/roster/db"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(publishCmd)
}

var publishCmd = &cobra.Command{
	Use:   "publish <source>",
	Short: "Collects a government body's roster and replaces its rows in the database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, runErr := collect(args[0])
		if len(records) == 0 {
			if runErr != nil {
				fmt.Fprintln(os.Stderr, runErr.Error())
			}
			fatalerr("refusing to publish an empty roster", errors.New("no records collected"))
		}
		if runErr != nil {
			slog.Warn("publishing a partial roster", "err", runErr.Error())
		}

		config := readConfig()
		sqlite, err := db.Open(config.Sink.databasePath())
		if err != nil {
			fatalerr("failed to open database", err)
		}
		defer sqlite.Close()

		service := rosterservice.NewService(sqlite)
		err = service.Publish(cmd.Context(), registry[args[0]].organization, records)
		if err != nil {
			fatalerr("failed to publish roster", err)
		}

		summarize(records)
		slog.Info("published roster", "database", config.Sink.databasePath(), "records", len(records))
	},
}
