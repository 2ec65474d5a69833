package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/store"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	statusStyles = map[string]lipgloss.Style{
		graph.StatusCompleted.String():       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		graph.StatusTerminatedEarly.String(): lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		graph.StatusFailed.String():          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
)

func renderStatus(status string) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(status)
	}
	return status
}

// renderRecord prints a run record: header, path, proposal and audit trail.
func renderRecord(w io.Writer, rec *store.Record) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Run"), rec.RunID)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("workflow:"), rec.Workflow)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("status:  "), renderStatus(rec.Status))
	if rec.Outcome != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("outcome: "), rec.Outcome)
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("error:   "), rec.Error)
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("created: "), rec.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("path:    "), strings.Join(rec.Steps, " -> "))

	if proposal, ok := rec.State["trade_proposal"].(map[string]any); ok {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Trade proposal"))
		for _, key := range sortedKeys(proposal) {
			fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(key+":"), proposal[key])
		}
	}

	fmt.Fprintf(w, "\n%s (%d entries)\n", titleStyle.Render("Audit trail"), len(rec.Entries))
	for _, e := range rec.Entries {
		fmt.Fprintf(w, "  %2d %s %s\n", e.Sequence, stepStyle.Render(e.Step), labelStyle.Render(e.Timestamp.Format(time.RFC3339)))
	}
}

// renderList prints one line per record.
func renderList(w io.Writer, records []*store.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, labelStyle.Render("no runs recorded"))
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s  %-16s  %s\n",
			rec.CreatedAt.Format(time.RFC3339), rec.RunID, rec.Workflow, renderStatus(rec.Status))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
