package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docdialog/internal/config"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/pipeline"
	"github.com/dgallion1/docdialog/internal/store"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for succeeded runs
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// errorStyle for failed runs
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// FormatRunSummary renders what a finished run produced.
func FormatRunSummary(w io.Writer, res *pipeline.Result, scope pipeline.Scope, cfg config.Config) {
	var lines []string
	lines = append(lines, titleStyle.Render("Run "+res.RunID))
	lines = append(lines, row("Documents", fmt.Sprint(len(res.Documents))))
	pages := 0
	for _, d := range res.Documents {
		pages += len(d.Pages)
	}
	lines = append(lines, row("Pages", fmt.Sprint(pages)))

	if cfg.ArtifactPath != "" {
		lines = append(lines, row("Artifact", cfg.ArtifactPath))
	}
	if scope >= pipeline.ScopeFacts {
		lines = append(lines, row("Facts", fmt.Sprintf("%d (max %d)", len(res.Facts), cfg.MaxFacts)))
	}
	if scope == pipeline.ScopeFull {
		lines = append(lines, row("Conversations", fmt.Sprintf("%d of %d requested", len(res.Conversations), cfg.Conversations)))
		if cfg.ExtractImages {
			lines = append(lines, row("Image pairs", fmt.Sprint(len(res.ImagePairs))))
		}
	}
	if scope >= pipeline.ScopeFacts {
		lines = append(lines, row("Database", cfg.DBPath))
	}
	if cfg.ExportDir != "" && scope >= pipeline.ScopeFacts {
		lines = append(lines, row("Exports", cfg.ExportDir))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// FormatStats renders the knowledge base summary.
func FormatStats(w io.Writer, dbPath string, st *store.Stats) {
	var lines []string
	lines = append(lines, titleStyle.Render("Knowledge base"))
	lines = append(lines, row("Database", dbPath))
	lines = append(lines, row("Facts", fmt.Sprint(st.Facts)))
	for _, c := range extract.Categories {
		lines = append(lines, row("  "+string(c), fmt.Sprint(st.ByCategory[c])))
	}
	lines = append(lines, row("Conversations", fmt.Sprint(st.Conversations)))
	lines = append(lines, row("Image pairs", fmt.Sprint(st.ImagePairs)))
	lines = append(lines, row("Runs", fmt.Sprint(st.Runs)))

	if r := st.LastRun; r != nil {
		status := successStyle.Render(r.Status)
		if r.Status != store.RunSucceeded {
			status = errorStyle.Render(r.Status)
		}
		lines = append(lines, "")
		lines = append(lines, titleStyle.Render("Last run"))
		lines = append(lines, row("ID", r.RunID))
		lines = append(lines, row("Status", status))
		lines = append(lines, row("Started", r.StartedAt.Local().Format(time.DateTime)))
		lines = append(lines, row("Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()))
		lines = append(lines, row("Produced", fmt.Sprintf("%d facts, %d conversations from %d pages", r.Facts, r.Conversations, r.Pages)))
		if r.Error != "" {
			lines = append(lines, row("Error", errorStyle.Render(r.Error)))
		}
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", dimStyle.Render(fmt.Sprintf("%-14s", label+":")), value)
}
