// Package ui provides colored terminal output helpers for the importer CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// headerWidth is the banner line length.
const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)

	blue   = color.New(color.FgBlue).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
)

// Header prints a banner with the given title centered in a rule of
// headerWidth characters.
func Header(title string) {
	rule := strings.Repeat("=", headerWidth)
	headerColor.Println(rule)
	headerColor.Println(center(title, headerWidth))
	headerColor.Println(rule)
}

// Step prints a numbered progress line, e.g. "[2/5] Parsing exports".
func Step(n, total int, msg string) {
	stepColor.Printf("[%d/%d] ", n, total)
	fmt.Println(msg)
}

// Success prints a green checkmark line.
func Success(msg string) {
	successColor.Printf("✓ %s\n", msg)
}

// Info prints a plain informational line.
func Info(msg string) {
	infoColor.Printf("  %s\n", msg)
}

// Warning prints a yellow warning line.
func Warning(msg string) {
	warningColor.Printf("! %s\n", msg)
}

// Error prints a red error line.
func Error(msg string) {
	errorColor.Printf("✗ %s\n", msg)
}

// BlueText returns the formatted string in blue.
func BlueText(format string, a ...interface{}) string {
	return blue(format, a...)
}

// YellowText returns the formatted string in yellow.
func YellowText(format string, a ...interface{}) string {
	return yellow(format, a...)
}

// center left-pads text to sit in the middle of width. Text wider than width
// is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}
