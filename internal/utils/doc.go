// Package utils exposes reusable helpers consumed across the CLI: the
// Viper-backed ConfigurationLoader, the zap LoggerFactory, and the command
// context accessor carrying configuration metadata.
package utils
