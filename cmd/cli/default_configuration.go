package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the baked-in configuration document and
// its type identifier. Callers receive a copy so the embedded bytes stay
// immutable.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	configurationCopy := make([]byte, len(embeddedDefaultConfiguration))
	copy(configurationCopy, embeddedDefaultConfiguration)
	return configurationCopy, configurationTypeConstant
}
