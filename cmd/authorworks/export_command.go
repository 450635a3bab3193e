package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/authorworks/internal/core"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var targets []string
	var mode string
	var authorsPath, worksPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Prepare the CSV files and write them to the export targets",
		Long: `Load the author and work CSV files, normalize them, resolve work
identities, match authors to works and write the three tables to every
selected target. Targets default to EXPORT_TARGETS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if authorsPath != "" {
				cfg.Input.AuthorsCSV = authorsPath
			}
			if worksPath != "" {
				cfg.Input.WorksCSV = worksPath
			}

			svc, err := ctx.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			run, err := svc.Export(cmd.Context(), core.ExportRequest{
				Targets: targets,
				Mode:    mode,
				Trigger: core.TriggerCLI,
			})
			if run == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(run); encErr != nil {
					return encErr
				}
			} else {
				printRun(out, run)
			}

			if run.Status == core.StatusFailed {
				if run.Error != "" {
					return fmt.Errorf("export failed: %s [%s]", run.Error, run.Code)
				}
				return fmt.Errorf("export failed on %d of %d targets", failedTargets(run), len(run.Targets))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Export target (sqlite, postgres, mysql, script); repeatable")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Existing-table policy: replace, append or fail (default EXPORT_MODE)")
	cmd.Flags().StringVar(&authorsPath, "authors", "", "Author CSV path (default AUTHORS_CSV)")
	cmd.Flags().StringVar(&worksPath, "works", "", "Work CSV path (default WORKS_CSV)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")

	return cmd
}

func failedTargets(run *core.ExportRun) int {
	n := 0
	for _, t := range run.Targets {
		if t.Failed() {
			n++
		}
	}
	return n
}

// printRun writes the per-target table and any skipped rows.
func printRun(w io.Writer, run *core.ExportRun) {
	fmt.Fprintf(w, "Run %s: %s in %s\n", run.ID, run.Status, run.Duration().Round(time.Millisecond))

	rows := make([][]string, 0, len(run.Targets))
	for _, t := range run.Targets {
		status := "ok"
		inserted, skipped, filtered, artifact := "-", "-", "-", ""
		if t.Failed() {
			status = t.Code
		}
		if rep := t.Report; rep != nil {
			inserted = strconv.Itoa(rep.Inserted())
			skipped = strconv.Itoa(rep.SkippedRows())
			filtered = strconv.Itoa(rep.FilteredRelations)
			artifact = rep.Artifact
		}
		rows = append(rows, []string{t.Target, status, inserted, skipped, filtered, artifact})
	}
	fmt.Fprintln(w, renderTable("Targets",
		[]string{"Target", "Status", "Inserted", "Skipped", "Filtered", "Artifact"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))

	for _, t := range run.Targets {
		if t.Failed() {
			fmt.Fprintf(w, "%s: %s\n", t.Target, t.Error)
		}
		if t.Report == nil {
			continue
		}
		var skipped [][]string
		for _, tr := range t.Report.Tables {
			for _, sk := range tr.Skipped {
				skipped = append(skipped, []string{tr.Table, strconv.Itoa(sk.Row), sk.Key, sk.Code, sk.Reason})
			}
		}
		if len(skipped) > 0 {
			fmt.Fprintln(w, renderTable("Skipped rows ("+t.Target+")",
				[]string{"Table", "Row", "Key", "Code", "Reason"},
				skipped,
				[]columnAlignment{alignLeft, alignRight},
			))
		}
	}
}
