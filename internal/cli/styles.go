package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// Styles contains lipgloss styles for command output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Banner  lipgloss.Style
	Header  lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			Width(12),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}

func (s Styles) field(label, value string) string {
	return s.Label.Render(label) + value
}

func (s Styles) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Muted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// RenderError renders err as a banner. Domain errors show their code and any
// field messages.
func (s Styles) RenderError(err error) string {
	code, message, details := describe(err)
	var b strings.Builder
	b.WriteString(s.Error.Render(code) + " " + message)

	if fields, ok := details["fields"].(map[string]string); ok {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\n  %s: %s", name, fields[name])
		}
	}
	if id, ok := details["movieId"]; ok {
		fmt.Fprintf(&b, "\n  movie id: %v", id)
	}
	return s.Banner.Render(b.String())
}

func describe(err error) (string, string, map[string]any) {
	var de *apperrors.DomainError
	var partial *apperrors.PartialSuccessError
	if errors.As(err, &partial) || errors.As(err, &de) {
		d := apperrors.ToDomainError(err)
		return d.Code, d.Message, d.Details
	}
	return "ERROR", err.Error(), nil
}
