package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
)

// GenerateMarkdown creates a markdown completeness report for one summary.
// The generated-at timestamp is passed in so reports are reproducible.
func GenerateMarkdown(s Summary, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Catalog completeness: %s\n\n", s.Collection))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", generatedAt.Format(time.RFC1123)))

	sb.WriteString("## Overview\n\n")
	sb.WriteString(fmt.Sprintf("- **Rows:** %d\n", s.Rows))
	if s.Rows > 0 {
		sb.WriteString(fmt.Sprintf("- **Mean score:** %.1f\n", s.Mean))
		sb.WriteString(fmt.Sprintf("- **Median score:** %.0f\n", s.Median))
		sb.WriteString(fmt.Sprintf("- **Std dev:** %.1f\n", s.StdDev))
	}
	sb.WriteString("\n")

	sb.WriteString("## Score bands\n\n")
	sb.WriteString("| Band | Rows | Share |\n")
	sb.WriteString("|------|-----:|------:|\n")
	sb.WriteString(bandRow("Complete", s.Complete, s.Rows))
	sb.WriteString(bandRow("Partial", s.Partial, s.Rows))
	sb.WriteString(bandRow("Critical", s.Critical, s.Rows))
	sb.WriteString("\n")

	if len(s.Missing) > 0 {
		sb.WriteString("## Missing information\n\n")
		sb.WriteString("| Category | Rows flagged |\n")
		sb.WriteString("|----------|-------------:|\n")
		for _, cat := range fieldmap.AllMissingCategories() {
			if n := s.Missing[cat]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", cat, n))
			}
		}
		sb.WriteString("\n")
	}

	if len(s.Worst) > 0 {
		sb.WriteString("## Needs attention\n\n")
		sb.WriteString("| Row | Title | Brand | Score |\n")
		sb.WriteString("|-----|-------|-------|------:|\n")
		for _, r := range s.Worst {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
				r.ID, sanitizeCell(r.Title), sanitizeCell(r.Brand), r.Score))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func bandRow(label string, n, total int) string {
	share := 0.0
	if total > 0 {
		share = float64(n) / float64(total) * 100
	}
	return fmt.Sprintf("| %s | %d | %.0f%% |\n", label, n, share)
}

// sanitizeCell keeps field values from breaking markdown table syntax.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

// SaveMarkdownToFile writes a markdown report to the specified path,
// creating parent directories as needed.
func SaveMarkdownToFile(content, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
