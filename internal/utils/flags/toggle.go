// Package flags provides pflag values shared across projectdesk commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueValueConstant        = "true"
	toggleFalseValueConstant       = "false"
	toggleTypeNameConstant         = "bool"
	toggleParseErrorTemplate       = "invalid toggle value %q (expected yes or no)"
	toggleUsageTemplate            = "`%s` %s"
	toggleTruePlaceholderConstant  = "<YES|no>"
	toggleFalsePlaceholderConstant = "<yes|NO>"
)

var toggleLiterals = map[string]bool{
	"true": true, "yes": true, "y": true, "on": true, "1": true, "t": true,
	"false": false, "no": false, "n": false, "off": false, "0": false, "f": false,
}

type toggleValue struct {
	target *bool
}

func (value toggleValue) Set(rawValue string) error {
	normalized := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalized) == 0 {
		normalized = toggleTrueValueConstant
	}
	parsed, known := toggleLiterals[normalized]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	*value.target = parsed
	return nil
}

func (value toggleValue) String() string {
	if value.target != nil && *value.target {
		return toggleTrueValueConstant
	}
	return toggleFalseValueConstant
}

func (value toggleValue) Type() string {
	return toggleTypeNameConstant
}

// AddToggleFlag registers a boolean flag that accepts yes/no style values in
// "--name=value" form; a bare "--name" means yes.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}
	*target = defaultValue
	flagSet.Var(toggleValue{target: target}, name, formatToggleUsage(usage, defaultValue))
	if flag := flagSet.Lookup(name); flag != nil {
		flag.NoOptDefVal = toggleTrueValueConstant
	}
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	return strings.TrimSpace(fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(description)))
}
