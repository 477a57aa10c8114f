package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/wonny/sgxsync/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", bold(title))
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", yellow(message))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", green(message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", red(message))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", cyan(message))
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row. Values may carry color codes, so
// padding is computed on the plain text.
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Print(val)
		if pad := widths[i] - visibleLen(val); pad > 0 && i < len(values)-1 {
			fmt.Print(strings.Repeat(" ", pad))
		}
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// FormatBytes renders a byte count for humans
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// PrintReport prints the end-of-run summary
func PrintReport(report *contracts.SyncReport) {
	totals := report.Totals()

	title := "Sync Summary"
	if report.DryRun {
		title = "Sync Plan (dry run)"
	}
	PrintHeader(title)

	const keyWidth = 10
	PrintKeyValue("Run ID", report.RunID, keyWidth)
	PrintKeyValue("Dates", fmt.Sprintf("%d", len(report.Dates)), keyWidth)
	PrintKeyValue("Attempted", fmt.Sprintf("%d", totals.Attempted), keyWidth)
	PrintKeyValue("Succeeded", green(totals.Succeeded), keyWidth)
	PrintKeyValue("Failed", failedText(totals.Failed), keyWidth)
	PrintKeyValue("Skipped", yellow(totals.Skipped), keyWidth)
	PrintKeyValue("Present", fmt.Sprintf("%d", totals.Present), keyWidth)
	if report.DryRun {
		PrintKeyValue("Planned", cyan(totals.Planned), keyWidth)
	}
	PrintKeyValue("Bytes", FormatBytes(totals.Bytes), keyWidth)
	PrintKeyValue("Duration", report.Duration().Round(time.Millisecond).String(), keyWidth)
	PrintSeparator()

	widths := []int{12, 24, 10, 40}
	PrintTableHeader([]string{"DATE", "FILE", "RESULT", "DETAIL"}, widths)
	for _, dr := range report.Dates {
		if len(dr.Results) == 0 {
			PrintTableRow([]string{dr.Date.String(), "-", yellow("closed"), "no files expected"}, widths)
			continue
		}
		for _, res := range dr.Results {
			PrintTableRow([]string{dr.Date.String(), res.Kind, categoryText(res.Category), resultDetail(res)}, widths)
		}
	}
	PrintDoubleSeparator()

	switch {
	case totals.Failed > 0:
		PrintError(fmt.Sprintf("%d of %d targets failed", totals.Failed, totals.Attempted))
	case report.DryRun:
		PrintInfo(fmt.Sprintf("%d downloads planned, nothing written", totals.Planned))
	default:
		PrintSuccess("All targets are present")
	}
}

func failedText(n int) string {
	if n > 0 {
		return red(n)
	}
	return fmt.Sprintf("%d", n)
}

func categoryText(c contracts.ResultCategory) string {
	switch c {
	case contracts.CategorySucceeded:
		return green(string(c))
	case contracts.CategoryFailed:
		return red(string(c))
	case contracts.CategorySkipped:
		return yellow(string(c))
	case contracts.CategoryPlanned:
		return cyan(string(c))
	default:
		return string(c)
	}
}

func resultDetail(res contracts.TargetResult) string {
	switch res.Category {
	case contracts.CategorySucceeded:
		return fmt.Sprintf("%s in %d attempt(s)", FormatBytes(res.Bytes), res.Attempts)
	case contracts.CategoryPlanned:
		if len(res.Planned) > 0 {
			return fmt.Sprintf("%d candidate(s), first %s", len(res.Planned), res.Planned[0].URL)
		}
		return "no candidates"
	default:
		return res.Reason
	}
}

// visibleLen is the printed width of s without ANSI escape sequences
func visibleLen(s string) int {
	n, inEscape := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
