package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/poulsbopete/o11ybot/pkg/analyze"
)

// renderReport prints the human-readable report: per-index tables for
// transaction types and candidates, then the titled ESQL snippets.
func renderReport(w io.Writer, report analyze.Report) error {
	printer := message.NewPrinter(language.English)

	if report.Partial {
		_, _ = fmt.Fprintln(w, "Warning: run deadline reached, results are partial")
		_, _ = fmt.Fprintln(w)
	}

	for _, idx := range report.Indices {
		_, _ = fmt.Fprintf(w, "Index: %s (%d fields sampled)\n", idx.Index, idx.FieldCount)

		if len(idx.TransactionTypes) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetTitle("Transaction types")
			t.AppendHeader(table.Row{"Type", "Count"})
			for _, bucket := range idx.TransactionTypes {
				t.AppendRow(table.Row{bucket.Key, printer.Sprintf("%d", bucket.DocCount)})
			}
			t.Render()
		}

		if len(idx.Candidates) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetTitle("Signal candidates")
			t.AppendHeader(table.Row{"Field", "Category", "Type", "Confidence", "Null ratio"})
			for _, cand := range idx.Candidates {
				fd := cand.Field.Descriptor
				t.AppendRow(table.Row{
					fd.Path,
					cand.Field.Category.Title(),
					fd.Type,
					fmt.Sprintf("%.2f", cand.Field.Confidence),
					fmt.Sprintf("%.2f", fd.NullRatio),
				})
			}
			t.Render()
		} else {
			_, _ = fmt.Fprintln(w, "No signal candidates found in this index")
		}

		for _, example := range idx.Examples {
			_, _ = fmt.Fprintf(w, "\n%s\n", example.Title)
			_, _ = fmt.Fprintln(w, example.ESQL)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(report.Errors) > 0 {
		_, _ = fmt.Fprintln(w, "Failed indices:")
		for _, ie := range report.Errors {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", ie.Index, ie.Err)
		}
	}
	return nil
}

// renderJSON prints the report as indented JSON.
func renderJSON(w io.Writer, report analyze.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
