package audit

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	maxCommitsConfigKeyConstant      = "max_commits"
	repositoryConfigKeyConstant      = "repository"
	publicHostsConfigKeyConstant     = "public_hosts"
	rotationCatalogConfigKeyConstant = "rotation_catalog"
	strictConfigKeyConstant          = "strict"
	jsonOutputConfigKeyConstant      = "json"
	configurationKeyTemplateConstant = "%s.%s"
	optionsDecodeErrorTemplate       = "unable to decode audit options: %w"
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	MaxCommits      int      `mapstructure:"max_commits"`
	Repository      string   `mapstructure:"repository"`
	PublicHosts     []string `mapstructure:"public_hosts"`
	RotationCatalog string   `mapstructure:"rotation_catalog"`
	Strict          bool     `mapstructure:"strict"`
	JSONOutput      bool     `mapstructure:"json"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		MaxCommits: defaultMaximumCommitsConstant,
		Repository: ".",
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the shared
// configuration loader under the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaultConfiguration := DefaultCommandConfiguration()
	return map[string]any{
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, maxCommitsConfigKeyConstant):      defaultConfiguration.MaxCommits,
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, repositoryConfigKeyConstant):      defaultConfiguration.Repository,
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, publicHostsConfigKeyConstant):     defaultConfiguration.PublicHosts,
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, rotationCatalogConfigKeyConstant): defaultConfiguration.RotationCatalog,
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, strictConfigKeyConstant):          defaultConfiguration.Strict,
		fmt.Sprintf(configurationKeyTemplateConstant, configurationPrefix, jsonOutputConfigKeyConstant):      defaultConfiguration.JSONOutput,
	}
}

// DecodeConfigurationMap decodes an untyped option map into a typed
// configuration, starting from the defaults.
func DecodeConfigurationMap(optionValues map[string]any) (CommandConfiguration, error) {
	decodedConfiguration := DefaultCommandConfiguration()
	if decodeError := mapstructure.Decode(optionValues, &decodedConfiguration); decodeError != nil {
		return CommandConfiguration{}, fmt.Errorf(optionsDecodeErrorTemplate, decodeError)
	}
	return decodedConfiguration.sanitize(), nil
}

// sanitize trims whitespace and reapplies defaults to unset values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.MaxCommits <= 0 {
		sanitized.MaxCommits = defaultMaximumCommitsConstant
	}
	sanitized.Repository = strings.TrimSpace(sanitized.Repository)
	if len(sanitized.Repository) == 0 {
		sanitized.Repository = "."
	}
	sanitized.RotationCatalog = strings.TrimSpace(sanitized.RotationCatalog)

	sanitizedHosts := make([]string, 0, len(sanitized.PublicHosts))
	for _, hostEntry := range sanitized.PublicHosts {
		trimmedHost := strings.TrimSpace(hostEntry)
		if len(trimmedHost) > 0 {
			sanitizedHosts = append(sanitizedHosts, trimmedHost)
		}
	}
	sanitized.PublicHosts = sanitizedHosts
	return sanitized
}
