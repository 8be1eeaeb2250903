package flags

import (
	"fmt"
	"strings"
)

const choiceUsageTemplate = "`<%s>` %s"

// FormatChoiceUsage renders "<a|B|c> description" with the default choice upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	rendered := make([]string, 0, len(choices))
	for _, choice := range choices {
		trimmed := strings.TrimSpace(choice)
		if len(trimmed) == 0 {
			continue
		}
		if strings.EqualFold(trimmed, strings.TrimSpace(defaultChoice)) {
			trimmed = strings.ToUpper(trimmed)
		}
		rendered = append(rendered, trimmed)
	}
	return strings.TrimSpace(fmt.Sprintf(choiceUsageTemplate, strings.Join(rendered, "|"), strings.TrimSpace(description)))
}
