package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	statusLineTemplateConstant   = "%s  %s  %s\n"
	summaryCountTemplateConstant = "%s %d"
	summaryLineTemplateConstant  = "%s: %s\n"
	summarySeparatorConstant     = ", "
	emptyTableMessageConstant    = "nothing to show"
)

// Tone selects the color a status renders with.
type Tone int

// Report tones.
const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneWarning
	ToneFailure
)

// SummaryCount is one labeled counter of a summary line.
type SummaryCount struct {
	Label string
	Count int
	Tone  Tone
}

// ReportPrinter writes styled command results. Styling degrades to plain text when the writer is
// not a terminal.
type ReportPrinter struct {
	writer      io.Writer
	renderer    *lipgloss.Renderer
	labelStyle  lipgloss.Style
	dimStyle    lipgloss.Style
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
	toneStyles  map[Tone]lipgloss.Style
}

// NewReportPrinter constructs a printer bound to writer.
func NewReportPrinter(writer io.Writer) *ReportPrinter {
	renderer := lipgloss.NewRenderer(writer)
	return &ReportPrinter{
		writer:      writer,
		renderer:    renderer,
		labelStyle:  renderer.NewStyle().Bold(true),
		dimStyle:    renderer.NewStyle().Faint(true),
		titleStyle:  renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		headerStyle: renderer.NewStyle().Bold(true).Padding(0, 1),
		toneStyles: map[Tone]lipgloss.Style{
			ToneNeutral: renderer.NewStyle(),
			ToneSuccess: renderer.NewStyle().Foreground(lipgloss.Color("2")),
			ToneWarning: renderer.NewStyle().Foreground(lipgloss.Color("214")),
			ToneFailure: renderer.NewStyle().Foreground(lipgloss.Color("196")),
		},
	}
}

// PrintStatusLine writes one project outcome.
func (printer *ReportPrinter) PrintStatusLine(label string, status string, tone Tone, message string) {
	fmt.Fprintf(printer.writer, statusLineTemplateConstant,
		printer.labelStyle.Render(label),
		printer.toneStyles[tone].Render(status),
		printer.dimStyle.Render(message))
}

// PrintSummary writes a titled line of counters.
func (printer *ReportPrinter) PrintSummary(title string, counts []SummaryCount) {
	parts := make([]string, 0, len(counts))
	for _, count := range counts {
		tone := count.Tone
		if count.Count == 0 {
			tone = ToneNeutral
		}
		parts = append(parts, printer.toneStyles[tone].Render(fmt.Sprintf(summaryCountTemplateConstant, count.Label, count.Count)))
	}
	fmt.Fprintf(printer.writer, summaryLineTemplateConstant, printer.titleStyle.Render(title), strings.Join(parts, summarySeparatorConstant))
}

// PrintTable writes rows under headers with a rounded border.
func (printer *ReportPrinter) PrintTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(printer.writer, printer.dimStyle.Render(emptyTableMessageConstant))
		return
	}
	cellStyle := printer.renderer.NewStyle().Padding(0, 1)
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(printer.dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row int, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return printer.headerStyle
			}
			return cellStyle
		}).
		Render()
	fmt.Fprintln(printer.writer, rendered)
}
