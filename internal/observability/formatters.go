// Package observability provides formatted output utilities for CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/project-scout/internal/db"
	"github.com/jonathan/project-scout/internal/match"
	"github.com/jonathan/project-scout/internal/scan"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintEvent outputs one scan progress event as a single line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(ev scan.Event) {
	switch ev.Kind {
	case scan.EventStart:
		fmt.Fprintf(p.out, "scan %s started\n", ev.ScanID)
	case scan.EventWebsiteStart:
		fmt.Fprintf(p.out, "[%s] scanning\n", ev.Site)
	case scan.EventProgress:
		fmt.Fprintf(p.out, "[%s] page %d: %d cards\n", ev.Site, ev.Page, ev.CardsSeen)
	case scan.EventProject:
		if project, ok := ev.Project.(*db.Project); ok {
			fmt.Fprintf(p.out, "[%s] + %s\n", ev.Site, project.Title)
		} else {
			fmt.Fprintf(p.out, "[%s] + new project\n", ev.Site)
		}
	case scan.EventWebsiteComplete:
		fmt.Fprintf(p.out, "[%s] done: %d new projects\n", ev.Site, ev.NewProjects)
	case scan.EventDeduplication:
		fmt.Fprintf(p.out, "deduplication removed %d projects\n", ev.Removed)
	case scan.EventTFIDFComplete:
		fmt.Fprintf(p.out, "relevance index rebuilt\n")
	case scan.EventComplete:
		fmt.Fprintf(p.out, "scan %s complete: %d new projects\n", ev.ScanID, ev.NewProjects)
	case scan.EventCancelled:
		fmt.Fprintf(p.out, "scan %s cancelled\n", ev.ScanID)
	case scan.EventError:
		fmt.Fprintf(p.out, "error: %s\n", ev.Message)
	default:
		fmt.Fprintf(p.out, "%s\n", ev.Kind)
	}
}

// PrintMatchResult outputs a human-readable summary of a match result.
func (p *Printer) PrintMatchResult(result *match.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match: %.1f%%", result.Percentage))
	if result.Degraded {
		sb.WriteString(" (degraded: no embeddings)")
	}
	sb.WriteString("\n\n")

	matched := make([]match.SkillMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		if m.Kind != match.MatchMissing {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Contribution > matched[j].Contribution
	})

	if len(matched) > 0 {
		sb.WriteString("Matched:\n")
		count := min(len(matched), maxItemsToShow)
		for i := 0; i < count; i++ {
			m := matched[i]
			sb.WriteString(fmt.Sprintf("  • %s", m.Requirement))
			if m.MatchedSkill != "" && m.MatchedSkill != m.Requirement {
				sb.WriteString(fmt.Sprintf(" (via %s)", m.MatchedSkill))
			}
			sb.WriteString(fmt.Sprintf(" %.2f\n", m.Score))
		}
		if len(matched) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(matched)-maxItemsToShow))
		}
	}

	if len(result.TopMissing) > 0 {
		sb.WriteString("\nMissing:\n")
		count := min(len(result.TopMissing), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", result.TopMissing[i]))
		}
		if len(result.TopMissing) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.TopMissing)-maxItemsToShow))
		}
	}

	p.printBox("SKILL MATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRanking outputs a corpus-wide match ranking, best projects first.
// titles maps project IDs to display names; unknown IDs fall back to the ID.
func (p *Printer) PrintRanking(corpus *match.CorpusResult, titles map[int64]string) {
	if corpus == nil {
		return
	}

	var sb strings.Builder
	if corpus.Degraded {
		sb.WriteString("(degraded: no embeddings)\n\n")
	}

	count := min(len(corpus.Results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := corpus.Results[i]
		title, ok := titles[r.ProjectID]
		if !ok {
			title = fmt.Sprintf("project %d", r.ProjectID)
		}
		sb.WriteString(fmt.Sprintf("%2d. %5.1f%%  %s\n", i+1, r.Percentage, title))
	}
	if len(corpus.Results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(corpus.Results)-maxItemsToShow))
	}

	if len(corpus.TopMissing) > 0 {
		sb.WriteString("\nMost missed skills:\n")
		for _, skill := range corpus.TopMissing {
			sb.WriteString(fmt.Sprintf("  • %s\n", skill))
		}
	}

	p.printBox("PROJECT RANKING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLastScan outputs the outcome of the most recent scan.
func (p *Printer) PrintLastScan(last *db.LastScan) {
	if last == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scan:         %s\n", last.ScanID))
	sb.WriteString(fmt.Sprintf("Finished:     %s\n", last.FinishedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("New projects: %d", last.NewProjects))
	if last.Cancelled {
		sb.WriteString("\nCancelled:    yes")
	}

	p.printBox("LAST SCAN", sb.String())
}
