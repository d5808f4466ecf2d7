package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/finscore/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, doubleLine)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, singleLine)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		if i < len(values)-1 {
			fmt.Fprintf(w, "%-*s  ", widths[i], val)
		} else {
			fmt.Fprintf(w, "%-*s", widths[i], val)
		}
	}
	fmt.Fprintln(w)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// formatScore renders a 0..100 value with one decimal, or n/a
func formatScore(f contracts.Float) string {
	v, ok := f.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// PrintAnalysis renders one result as a report
func PrintAnalysis(w io.Writer, r *contracts.CompositeAnalysisResult) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s (%s)\n", r.Symbol, r.Mode)
	PrintSeparator(w)
	PrintKeyValue(w, "Overall", formatScore(r.OverallScore), 14)
	PrintKeyValue(w, "Recommendation", string(r.Recommendation), 14)
	PrintKeyValue(w, "Confidence", formatScore(r.Confidence), 14)
	PrintKeyValue(w, "Risk Level", string(r.RiskLevel), 14)
	if r.PriceTarget.IsKnown() {
		PrintKeyValue(w, "Price Target", fmt.Sprintf("%.2f", r.PriceTarget.OrElse(0)), 14)
	}
	PrintKeyValue(w, "Run ID", r.ID, 14)
	PrintSeparator(w)

	// 카테고리 점수 (고정 순서)
	widths := []int{18, 8, 10, 8, 9}
	PrintTableHeader(w, []string{"Category", "Score", "Rating", "Weight", "Coverage"}, widths)
	for _, cat := range contracts.AllCategories {
		s, ok := r.CategoryScores[cat]
		if !ok {
			continue
		}
		weight := "-"
		if ew, ok := r.EffectiveWeights[cat]; ok {
			weight = fmt.Sprintf("%.2f", ew)
		}
		PrintTableRow(w, []string{
			string(cat),
			formatScore(s.Score),
			string(s.Rating),
			weight,
			fmt.Sprintf("%.0f%%", s.Coverage*100),
		}, widths)
	}

	if len(r.Insights) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Insights:")
		PrintList(w, r.Insights)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		PrintList(w, r.Warnings)
	}
	PrintDoubleSeparator(w)
}
