package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout pricematch's CLI output. Icons are colored when
// stdout is a terminal; color is disabled automatically otherwise.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  not found / missing
//   ~  neutral info / state change

var (
	iconOK   = color.New(color.FgGreen).Sprint("✓")
	iconErr  = color.New(color.FgRed, color.Bold).Sprint("✗")
	iconWarn = color.New(color.FgYellow).Sprint("⚠")
	iconSkip = color.New(color.FgHiBlack).Sprint("○")
	iconMiss = color.New(color.FgHiBlack).Sprint("-")
	iconInfo = color.New(color.FgCyan).Sprint("~")

	sectionColor = color.New(color.FgCyan, color.Bold)
)

// printSection prints a top-level section header, e.g. "=== Search ===".
func printSection(title string) {
	fmt.Println()
	sectionColor.Printf("=== %s ===\n", title)
}

// printBullet prints a grouped-section bullet, e.g. "● Skipped images:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

func printLine(icon, name, msg string) {
	if name == "" {
		fmt.Printf("  %s  %s\n", icon, msg)
	} else {
		fmt.Printf("  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//   name = "" → "  ✓  msg"
//   name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine(iconOK, name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "  %s  %s\n", iconErr, msg)
	} else {
		fmt.Fprintf(os.Stderr, "  %s  [%s] %s\n", iconErr, name, msg)
	}
}

// printWarn prints a warning line.
func printWarn(name, msg string) { printLine(iconWarn, name, msg) }

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) { printLine(iconSkip, name, msg) }

// printMiss prints a not-found / missing line.
func printMiss(name, msg string) { printLine(iconMiss, name, msg) }

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) { printLine(iconInfo, name, msg) }
