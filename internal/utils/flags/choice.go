package flags

import (
	"fmt"
	"strings"
)

const (
	choiceOpenBracketConstant  = "<"
	choiceCloseBracketConstant = ">"
	choiceSeparatorConstant    = "|"
	bareUsageTemplateConstant  = "`%s`"
	fullUsageTemplateConstant  = "`%s` %s"
)

// FormatChoiceUsage renders a flag usage string whose placeholder lists the
// accepted values with the default shown uppercased, e.g. "`<INFO|debug>`".
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choiceOpenBracketConstant + strings.Join(renderChoices(defaultChoice, choices), choiceSeparatorConstant) + choiceCloseBracketConstant
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(bareUsageTemplateConstant, placeholder)
	}
	return fmt.Sprintf(fullUsageTemplateConstant, placeholder, description)
}

// renderChoices deduplicates and trims the choice list, uppercasing the entry
// matching the default choice.
func renderChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	renderedChoices := make([]string, 0, len(choices))
	seenChoices := make(map[string]struct{}, len(choices))

	for _, choiceCandidate := range choices {
		trimmedChoice := strings.TrimSpace(choiceCandidate)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, alreadySeen := seenChoices[normalizedChoice]; alreadySeen {
			continue
		}
		seenChoices[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			renderedChoices = append(renderedChoices, strings.ToUpper(trimmedChoice))
			continue
		}
		renderedChoices = append(renderedChoices, trimmedChoice)
	}

	return renderedChoices
}
