package scan

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	searchModeNameConstant                 = "name"
	searchModeValueConstant                = "value"
	secretNamePatternConstant              = `^[A-Za-z0-9_][A-Za-z0-9_.-]*$`
	// POSIX-compatible so the same expression serves git's -G/-E matcher
	// and the in-process line matcher.
	assignmentPatternTemplateConstant      = `(%[1]s[[:space:]]*[:=]|"%[1]s"[[:space:]]*:)`
	invalidSecretNameMessageTemplate       = "invalid secret name %q"
	emptySecretValueMessageConstant        = "secret value must not be empty"
	logNameSelectionFlagTemplateConstant   = "-G%s"
	logValueSelectionFlagTemplateConstant  = "-S%s"
	grepExtendedRegexpFlagConstant         = "-E"
	grepFixedStringsFlagConstant           = "-F"
	queryDescriptionNameTemplateConstant   = "name pattern for %s"
	queryDescriptionValueTemplateConstant  = "exact value of %s"
)

var secretNameExpression = regexp.MustCompile(secretNamePatternConstant)

// InvalidQueryError reports a query that cannot be constructed.
type InvalidQueryError struct {
	Message string
}

// Error describes the invalid query.
func (queryError InvalidQueryError) Error() string {
	return queryError.Message
}

// SearchQuery is a tagged search mode: permissive name-bound assignment
// matching or exact value-bound matching.
type SearchQuery struct {
	mode           string
	secretName     string
	exactValue     string
	lineExpression *regexp.Regexp
}

// ByName builds a name-bound query matching permissive assignment sites
// (NAME=, NAME:, and the JSON-quoted key form). Broad by design; false
// positives are acceptable.
func ByName(secretName string) (SearchQuery, error) {
	if !secretNameExpression.MatchString(secretName) {
		return SearchQuery{}, InvalidQueryError{Message: fmt.Sprintf(invalidSecretNameMessageTemplate, secretName)}
	}
	assignmentPattern := fmt.Sprintf(assignmentPatternTemplateConstant, regexp.QuoteMeta(secretName))
	return SearchQuery{
		mode:           searchModeNameConstant,
		secretName:     secretName,
		lineExpression: regexp.MustCompile(assignmentPattern),
	}, nil
}

// ByValue builds a value-bound query matching an exact literal. Strictly more
// precise than name-bound search and preferred when the value is known.
func ByValue(secretName string, exactValue string) (SearchQuery, error) {
	if !secretNameExpression.MatchString(secretName) {
		return SearchQuery{}, InvalidQueryError{Message: fmt.Sprintf(invalidSecretNameMessageTemplate, secretName)}
	}
	if len(exactValue) == 0 {
		return SearchQuery{}, InvalidQueryError{Message: emptySecretValueMessageConstant}
	}
	return SearchQuery{
		mode:       searchModeValueConstant,
		secretName: secretName,
		exactValue: exactValue,
	}, nil
}

// SecretName returns the identifier the query audits.
func (query SearchQuery) SecretName() string {
	return query.secretName
}

// IsValueBound reports whether the query matches an exact literal.
func (query SearchQuery) IsValueBound() bool {
	return query.mode == searchModeValueConstant
}

// Describe labels the query for human-readable failure messages.
func (query SearchQuery) Describe() string {
	if query.IsValueBound() {
		return fmt.Sprintf(queryDescriptionValueTemplateConstant, query.secretName)
	}
	return fmt.Sprintf(queryDescriptionNameTemplateConstant, query.secretName)
}

// LogSelectionArgument returns the git-log flag selecting candidate commits:
// -G with the assignment regex for name queries, -S with the literal for
// value queries.
func (query SearchQuery) LogSelectionArgument() string {
	if query.IsValueBound() {
		return fmt.Sprintf(logValueSelectionFlagTemplateConstant, query.exactValue)
	}
	return fmt.Sprintf(logNameSelectionFlagTemplateConstant, query.lineExpression.String())
}

// GrepArguments returns the git-grep matcher flags and needle for the
// head-presence point lookup.
func (query SearchQuery) GrepArguments() []string {
	if query.IsValueBound() {
		return []string{grepFixedStringsFlagConstant, query.exactValue}
	}
	return []string{grepExtendedRegexpFlagConstant, query.lineExpression.String()}
}

// MatchesLine reports whether a single line of file content matches the query.
func (query SearchQuery) MatchesLine(line string) bool {
	if query.IsValueBound() {
		return strings.Contains(line, query.exactValue)
	}
	return query.lineExpression.MatchString(line)
}
