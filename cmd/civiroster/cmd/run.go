package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"civiroster/lib/csvutil"
	"civiroster/lib/osutil"
	"civiroster/lib/roster"
	"civiroster/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var csvPath string

func init() {
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write records to this file instead of stdout")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <source>",
	Short: "Collects a government body's roster and writes it as CSV.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, runErr := collect(args[0])

		out := io.Writer(os.Stdout)
		if csvPath != "" {
			f, err := os.Create(csvPath)
			if err != nil {
				fatalerr("failed to create output file", err)
			}
			defer f.Close()
			out = f
		}
		err := csvutil.Write(out, records)
		if err != nil {
			fatalerr("failed to write csv", err)
		}

		if csvPath != "" {
			summarize(records)
			slog.Info("wrote roster", "file", csvPath, "records", len(records))
		}
		if runErr != nil {
			fmt.Fprintln(os.Stderr, runErr.Error())
			os.Exit(1)
		}
	},
}

func fatalerr(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// collect runs a source end to end and returns whatever records it
// produced, even when the error is non-nil.
func collect(name string) ([]roster.Record, error) {
	config := readConfig()
	source, err := newSource(config, name)
	if err != nil {
		fatalerr("failed to build source", err)
	}

	ctx := osutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "cmd/civiroster")
	if err != nil {
		slog.Debug("telemetry disabled", "err", err.Error())
	} else {
		defer func() {
			err := tel.Shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to shut down telemetry", "err", err.Error())
			}
		}()
		telemetry.InstrumentPerfStats(ctx)
	}

	driver := roster.Driver{
		Source: source,
		OnProgress: func(index, total int, rec roster.Record, err error) {
			if err != nil {
				slog.Warn("entity failed", "index", index, "total", total, "name", rec.Name, "err", err.Error())
				return
			}
			slog.Info("extracted", "index", index, "total", total, "name", rec.Name, "role", rec.PrimaryRoleEN)
		},
	}
	return driver.Run(ctx)
}

func summarize(records []roster.Record) {
	var emails, phones, addresses int
	for _, rec := range records {
		if rec.Email != "" {
			emails++
		}
		if rec.Phone != "" {
			phones++
		}
		if rec.Address != "" {
			addresses++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Records", "Emails", "Phones", "Addresses"})
	t.AppendRow(table.Row{len(records), emails, phones, addresses})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
