// Package ui renders run progress and backend data for the terminal.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fjglira/uitestkit/internal/domain"
)

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// Success, Failure and Hint style one-line command messages.
func Success(msg string) string { return green.Render("✓ " + msg) }
func Failure(msg string) string { return red.Render("✗ " + msg) }
func Hint(msg string) string    { return gray.Render(msg) }

func statusStyle(s domain.RunStatus) lipgloss.Style {
	switch s {
	case domain.RunPassed:
		return green
	case domain.RunFailed:
		return red
	case domain.RunPending, domain.RunRunning:
		return gray
	default:
		return yellow
	}
}

func statusIcon(s domain.RunStatus) string {
	switch s {
	case domain.RunPassed:
		return "✓"
	case domain.RunFailed:
		return "✗"
	case domain.RunPending, domain.RunRunning:
		return "…"
	default:
		return "!"
	}
}

// Elapsed formats d as mm:ss.
func Elapsed(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Seconds formats a backend execution time, N/A when unknown.
func Seconds(s float64) string {
	if s <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fs", s)
}
