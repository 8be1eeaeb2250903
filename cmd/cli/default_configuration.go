package cli

import (
	"bytes"
	_ "embed"
)

//go:embed default_config.yaml
var defaultConfigurationYAML []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in configuration; it is YAML and
// lists every configuration key projectdesk reads.
func EmbeddedDefaultConfiguration() []byte {
	return bytes.Clone(defaultConfigurationYAML)
}
