package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/authorworks/internal/core"
	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
	"github.com/JonMunkholm/authorworks/internal/schema"
)

// statsReport is the JSON form of the stats command.
type statsReport struct {
	Dataset core.DatasetSummary           `json:"dataset"`
	Summary relate.Summary                `json:"summary"`
	Schema  map[string][]schema.ColumnDef `json:"schema"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var target string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Prepare the CSV files and print dataset and schema statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.Export.Targets[0]
			}
			vocab, err := schema.ForTarget(target)
			if err != nil {
				return err
			}

			svc, err := ctx.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			d, err := svc.Prepare(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s [%s]", core.FormatUserError(err), core.ErrorCode(err))
			}

			layout := svc.Layout()
			report := statsReport{
				Dataset: d.Describe(),
				Summary: d.Summary(),
				Schema: map[string][]schema.ColumnDef{
					layout.AuthorsTable: schema.Infer(d.Authors, layout.AuthorID, vocab),
					layout.WorksTable:   schema.Infer(d.Works, layout.WorkID, vocab),
				},
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStats(out, report, vocab.Name(), []*records.Table{d.Authors, d.Works})
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target whose column types to show (default: first of EXPORT_TARGETS)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print statistics as JSON")

	return cmd
}

func printStats(w io.Writer, r statsReport, vocab string, tables []*records.Table) {
	d := r.Dataset
	count := func(label string, n int) []string { return []string{label, strconv.Itoa(n)} }
	rows := [][]string{
		count("Authors", d.Authors),
		count("Works", d.Works),
		count("Associations", d.Associations),
		count("Linked authors", r.Summary.LinkedAuthors),
		count("Linked works", r.Summary.LinkedWorks),
		count("Unmatched works", d.UnmatchedWorks),
		count("Duplicate works dropped", d.DuplicateWorks),
		count("Derived work IDs", d.DerivedIDs),
		count("Nulled cells", d.NulledCells),
		count("Truncated cells", d.TruncatedCells),
		{"Avg authors per work", strconv.FormatFloat(d.AvgAuthorsPerWork, 'f', 2, 64)},
		{"Avg works per author", strconv.FormatFloat(d.AvgWorksPerAuthor, 'f', 2, 64)},
	}
	fmt.Fprintln(w, renderTable("Dataset", []string{"Metric", "Value"}, rows,
		[]columnAlignment{alignLeft, alignRight}))

	for _, t := range tables {
		var cols [][]string
		for _, c := range r.Schema[t.Name] {
			key := ""
			if c.PrimaryKey {
				key = "PK"
			}
			cols = append(cols, []string{c.Name, c.Type, key})
		}
		fmt.Fprintln(w, renderTable(fmt.Sprintf("%s (%s)", t.Name, vocab),
			[]string{"Column", "Type", "Key"}, cols, nil))
	}
}
