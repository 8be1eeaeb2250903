package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/ui"
)

func TestReportPrinterStatusAndSummary(testInstance *testing.T) {
	output := &bytes.Buffer{}
	printer := ui.NewReportPrinter(output)

	printer.PrintStatusLine("demo", "pushed", ui.ToneSuccess, "pushed main")
	printer.PrintSummary("sweep", []ui.SummaryCount{
		{Label: "pushed", Count: 1, Tone: ui.ToneSuccess},
		{Label: "failed", Count: 0, Tone: ui.ToneFailure},
	})

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(testInstance, lines, 2)
	require.Equal(testInstance, "demo  pushed  pushed main", lines[0])
	require.Equal(testInstance, "sweep: pushed 1, failed 0", lines[1])
}

func TestReportPrinterTable(testInstance *testing.T) {
	testCases := []struct {
		name             string
		rows             [][]string
		expectedContains []string
	}{
		{
			name:             "rows",
			rows:             [][]string{{"alpha", "published"}, {"beta", "local"}},
			expectedContains: []string{"NAME", "STATUS", "alpha", "published", "beta", "local"},
		},
		{
			name:             "empty",
			expectedContains: []string{"nothing to show"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			output := &bytes.Buffer{}
			ui.NewReportPrinter(output).PrintTable([]string{"NAME", "STATUS"}, testCase.rows)
			for _, expected := range testCase.expectedContains {
				require.Contains(testInstance, output.String(), expected)
			}
		})
	}
}
