package audit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/audit"
)

func TestDecodeConfigurationMapAppliesDefaults(testInstance *testing.T) {
	decodedConfiguration, decodeError := audit.DecodeConfigurationMap(map[string]any{})

	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, 1000, decodedConfiguration.MaxCommits)
	require.Equal(testInstance, ".", decodedConfiguration.Repository)
	require.False(testInstance, decodedConfiguration.Strict)
}

func TestDecodeConfigurationMapOverridesAndSanitizes(testInstance *testing.T) {
	decodedConfiguration, decodeError := audit.DecodeConfigurationMap(map[string]any{
		"max_commits":      250,
		"repository":       "  /srv/checkouts/app  ",
		"public_hosts":     []string{" github.com ", "", "git.internal.example"},
		"rotation_catalog": " catalog.yaml ",
		"strict":           true,
		"json":             true,
	})

	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, 250, decodedConfiguration.MaxCommits)
	require.Equal(testInstance, "/srv/checkouts/app", decodedConfiguration.Repository)
	require.Equal(testInstance, []string{"github.com", "git.internal.example"}, decodedConfiguration.PublicHosts)
	require.Equal(testInstance, "catalog.yaml", decodedConfiguration.RotationCatalog)
	require.True(testInstance, decodedConfiguration.Strict)
	require.True(testInstance, decodedConfiguration.JSONOutput)
}

func TestDecodeConfigurationMapNormalizesInvalidValues(testInstance *testing.T) {
	decodedConfiguration, decodeError := audit.DecodeConfigurationMap(map[string]any{
		"max_commits": -5,
		"repository":  "   ",
	})

	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, 1000, decodedConfiguration.MaxCommits)
	require.Equal(testInstance, ".", decodedConfiguration.Repository)
}

func TestDecodeConfigurationMapRejectsMismatchedTypes(testInstance *testing.T) {
	_, decodeError := audit.DecodeConfigurationMap(map[string]any{
		"max_commits": "not-a-number",
	})

	require.Error(testInstance, decodeError)
}
