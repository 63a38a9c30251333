package remediation

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	catalogParseErrorTemplateConstant   = "unable to parse rotation catalog: %w"
	catalogRuleErrorTemplateConstant    = "rotation catalog rule %d (%s): %s"
	missingVendorMessageConstant        = "vendor is required"
	missingTokensMessageConstant        = "at least one match token is required"
	missingInstructionMessageConstant   = "instruction is required"
	genericRotationInstructionConstant  = "Regenerate the credential with its issuing service and redistribute it to every consumer."
	genericRotationVendorNameConstant   = "generic"
)

// RotationRule maps secret-identifier tokens to a vendor-specific rotation
// instruction. The first rule whose token appears in the identifier wins.
type RotationRule struct {
	Vendor      string   `yaml:"vendor"`
	MatchTokens []string `yaml:"match_tokens"`
	Instruction string   `yaml:"instruction"`
	Command     string   `yaml:"command,omitempty"`
}

// RotationCatalog is an ordered rule list with a generic fallback.
type RotationCatalog struct {
	rules []RotationRule
}

// DefaultRotationCatalog returns the built-in vendor table.
func DefaultRotationCatalog() RotationCatalog {
	return RotationCatalog{rules: []RotationRule{
		{
			Vendor:      "aws",
			MatchTokens: []string{"AWS"},
			Instruction: "Create a replacement access key, update every consumer, then deactivate and delete the leaked key.",
			Command:     "aws iam create-access-key --user-name <user> && aws iam update-access-key --access-key-id <leaked-id> --status Inactive",
		},
		{
			Vendor:      "github",
			MatchTokens: []string{"GITHUB", "GH_"},
			Instruction: "Revoke the leaked token under Settings > Developer settings > Personal access tokens and mint a replacement with the minimum required scopes.",
			Command:     "gh auth refresh",
		},
		{
			Vendor:      "openai",
			MatchTokens: []string{"OPENAI"},
			Instruction: "Revoke the key at platform.openai.com/api-keys and issue a new one.",
		},
		{
			Vendor:      "anthropic",
			MatchTokens: []string{"ANTHROPIC", "CLAUDE"},
			Instruction: "Revoke the key in the Anthropic console API-keys page and issue a new one.",
		},
		{
			Vendor:      "stripe",
			MatchTokens: []string{"STRIPE"},
			Instruction: "Roll the key from the Stripe dashboard Developers > API keys page; the old key keeps working for 12 hours unless expired immediately.",
		},
		{
			Vendor:      "slack",
			MatchTokens: []string{"SLACK"},
			Instruction: "Regenerate the token from the Slack app management page and reinstall the app to the workspace.",
		},
		{
			Vendor:      "database",
			MatchTokens: []string{"DATABASE", "DB_", "POSTGRES", "MYSQL"},
			Instruction: "Change the database user's password, update every connection string, and terminate sessions authenticated with the old credentials.",
			Command:     "ALTER USER <user> WITH PASSWORD '<new-password>';",
		},
	}}
}

// ParseCatalogOverrides parses YAML rules and prepends them to the built-in
// catalog, so an override for an existing vendor token wins over the default.
func ParseCatalogOverrides(catalogYAML []byte) (RotationCatalog, error) {
	overrideRules := []RotationRule{}
	if unmarshalError := yaml.Unmarshal(catalogYAML, &overrideRules); unmarshalError != nil {
		return RotationCatalog{}, fmt.Errorf(catalogParseErrorTemplateConstant, unmarshalError)
	}

	for ruleIndex, overrideRule := range overrideRules {
		if validationMessage := validateRule(overrideRule); len(validationMessage) > 0 {
			return RotationCatalog{}, fmt.Errorf(catalogRuleErrorTemplateConstant, ruleIndex, overrideRule.Vendor, validationMessage)
		}
	}

	return RotationCatalog{rules: append(overrideRules, DefaultRotationCatalog().rules...)}, nil
}

func validateRule(rule RotationRule) string {
	if len(strings.TrimSpace(rule.Vendor)) == 0 {
		return missingVendorMessageConstant
	}
	if len(rule.MatchTokens) == 0 {
		return missingTokensMessageConstant
	}
	if len(strings.TrimSpace(rule.Instruction)) == 0 {
		return missingInstructionMessageConstant
	}
	return ""
}

// Lookup returns the first rule whose token appears in the secret identifier,
// compared case-insensitively, or the generic fallback.
func (catalog RotationCatalog) Lookup(secretIdentifier string) RotationRule {
	upperIdentifier := strings.ToUpper(secretIdentifier)
	for _, candidateRule := range catalog.rules {
		for _, matchToken := range candidateRule.MatchTokens {
			if strings.Contains(upperIdentifier, strings.ToUpper(matchToken)) {
				return candidateRule
			}
		}
	}
	return RotationRule{
		Vendor:      genericRotationVendorNameConstant,
		Instruction: genericRotationInstructionConstant,
	}
}
