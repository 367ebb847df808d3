package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"datenorm/internal/config"
	"datenorm/internal/dateinfer"
)

// renderReports writes one row per column report. format is table, markdown
// or csv.
func renderReports(w io.Writer, reps []dateinfer.ColumnReport, format string) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Outcome", "Sep", "Pattern", "Distinct", "Failed", "Reason"})

	for _, rep := range reps {
		sep := ""
		if rep.Outcome == dateinfer.OutcomeInferred || rep.Outcome == dateinfer.OutcomeFallback {
			sep = rep.Separator.String()
		}
		reason := ""
		if rep.Reason != nil {
			reason = rep.Reason.Error()
		}
		t.AppendRow(table.Row{rep.Column, string(rep.Outcome), sep, rep.Pattern, rep.Stats.Distinct, rep.Stats.Failed, reason})
	}

	switch format {
	case "", "table":
		t.Render()
	case "md", "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		return fmt.Errorf("unknown format %q (table, markdown, csv)", format)
	}
	return nil
}

// renderIssues writes validation issues as a table.
func renderIssues(w io.Writer, issues []config.Issue) {
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(w, "configuration is valid")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Path", "Message"})
	for _, iss := range issues {
		t.AppendRow(table.Row{string(iss.Severity), iss.Path, iss.Message})
	}
	t.Render()
}
