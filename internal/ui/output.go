// Package ui renders terminal output for the command-line tool.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// center left-pads text so it sits in the middle of width columns.
// Text wider than width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}

// Header prints a banner with the given title
func Header(title string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(title, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step
func Step(current, total int, message string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(message)
}

// Success prints a success message
func Success(message string) {
	successColor.Printf("✓ %s\n", message)
}

// Info prints an informational message
func Info(message string) {
	infoColor.Printf("  %s\n", message)
}

// Warning prints a warning message
func Warning(message string) {
	warningColor.Printf("⚠ %s\n", message)
}

// Error prints an error message
func Error(message string) {
	errorColor.Printf("✗ %s\n", message)
}

// BlueText returns the text colored blue
func BlueText(text string) string {
	return stepColor.Sprint(text)
}

// YellowText returns the text colored yellow
func YellowText(text string) string {
	return warningColor.Sprint(text)
}
