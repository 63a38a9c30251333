package utils

import "context"

type commandContextKey string

const configurationFilePathContextKey commandContextKey = "configuration_file_path"

// CommandContextAccessor reads and writes audit-session values carried on
// command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath returns a child context carrying the resolved
// configuration file path. A nil parent falls back to context.Background.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKey, configurationFilePath)
}

// ConfigurationFilePath reports the configuration file path stored on the
// context, if any.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	storedPath, pathPresent := executionContext.Value(configurationFilePathContextKey).(string)
	return storedPath, pathPresent
}
