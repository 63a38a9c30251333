package remediation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/remediation"
)

func TestDefaultRotationCatalogLookup(testInstance *testing.T) {
	rotationCatalog := remediation.DefaultRotationCatalog()

	testCases := []struct {
		name             string
		secretIdentifier string
		expectedVendor   string
	}{
		{name: "aws_access_key", secretIdentifier: "AWS_SECRET_ACCESS_KEY", expectedVendor: "aws"},
		{name: "github_token", secretIdentifier: "GITHUB_TOKEN", expectedVendor: "github"},
		{name: "gh_prefix", secretIdentifier: "GH_PAT", expectedVendor: "github"},
		{name: "openai_key", secretIdentifier: "OPENAI_API_KEY", expectedVendor: "openai"},
		{name: "anthropic_key", secretIdentifier: "ANTHROPIC_API_KEY", expectedVendor: "anthropic"},
		{name: "stripe_key", secretIdentifier: "STRIPE_SECRET_KEY", expectedVendor: "stripe"},
		{name: "slack_token", secretIdentifier: "SLACK_BOT_TOKEN", expectedVendor: "slack"},
		{name: "database_url", secretIdentifier: "DATABASE_URL", expectedVendor: "database"},
		{name: "lowercase_identifier", secretIdentifier: "aws_access_key_id", expectedVendor: "aws"},
		{name: "unknown_vendor_falls_back", secretIdentifier: "LICENSE_SERVER_KEY", expectedVendor: "generic"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			matchedRule := rotationCatalog.Lookup(testCase.secretIdentifier)
			require.Equal(testInstance, testCase.expectedVendor, matchedRule.Vendor)
			require.NotEmpty(testInstance, matchedRule.Instruction)
		})
	}
}

func TestParseCatalogOverridesPrependRules(testInstance *testing.T) {
	overrideYAML := []byte(`
- vendor: internal-pki
  match_tokens: ["PKI", "MTLS"]
  instruction: File a certificate reissue ticket with the platform team.
  command: pki-cli reissue --profile service
- vendor: aws
  match_tokens: ["AWS"]
  instruction: Rotate through the organization's break-glass runbook instead of the CLI.
`)

	rotationCatalog, parseError := remediation.ParseCatalogOverrides(overrideYAML)
	require.NoError(testInstance, parseError)

	pkiRule := rotationCatalog.Lookup("SERVICE_MTLS_KEY")
	require.Equal(testInstance, "internal-pki", pkiRule.Vendor)
	require.Equal(testInstance, "pki-cli reissue --profile service", pkiRule.Command)

	awsRule := rotationCatalog.Lookup("AWS_SECRET_ACCESS_KEY")
	require.Contains(testInstance, awsRule.Instruction, "break-glass")

	genericRule := rotationCatalog.Lookup("DATABASE_URL")
	require.Equal(testInstance, "database", genericRule.Vendor)
}

func TestParseCatalogOverridesValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		catalogYAML string
	}{
		{name: "missing_vendor", catalogYAML: "- match_tokens: [\"X\"]\n  instruction: do it\n"},
		{name: "missing_tokens", catalogYAML: "- vendor: x\n  instruction: do it\n"},
		{name: "missing_instruction", catalogYAML: "- vendor: x\n  match_tokens: [\"X\"]\n"},
		{name: "malformed_yaml", catalogYAML: "vendor: [unclosed"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, parseError := remediation.ParseCatalogOverrides([]byte(testCase.catalogYAML))
			require.Error(testInstance, parseError)
		})
	}
}
