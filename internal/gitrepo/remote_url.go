package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	gitProtocolPrefixConstant           = "git://"
	httpProtocolPrefixConstant          = "http://"
	httpsProtocolPrefixConstant         = "https://"
	gitUserPrefixConstant               = "git@"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	pathSeparatorConstant               = "/"
	hostPortDelimiterConstant           = ":"
	hostLabelDelimiterConstant          = "."
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
)

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// RemoteHost extracts the host component of a git remote URL.
//
// Supported forms are scp-like (git@host:owner/repo.git), ssh://, git://,
// http://, and https://. Ports and userinfo are stripped so the result can be
// compared against a hosting allow-list.
func RemoteHost(remote string) (string, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return "", RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return hostFromAuthority(trimmedRemote, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, gitProtocolPrefixConstant):
		return hostFromAuthority(trimmedRemote, strings.TrimPrefix(trimmedRemote, gitProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return hostFromAuthority(trimmedRemote, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return hostFromAuthority(trimmedRemote, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, sshUserDelimiterConstant):
		return hostFromSCPRemote(trimmedRemote)
	default:
		return "", RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
}

func hostFromAuthority(original string, authorityAndPath string) (string, error) {
	authority := authorityAndPath
	if pathIndex := strings.Index(authority, pathSeparatorConstant); pathIndex >= 0 {
		authority = authority[:pathIndex]
	}
	if userIndex := strings.Index(authority, sshUserDelimiterConstant); userIndex >= 0 {
		authority = authority[userIndex+1:]
	}
	if portIndex := strings.Index(authority, hostPortDelimiterConstant); portIndex >= 0 {
		authority = authority[:portIndex]
	}
	if len(authority) == 0 {
		return "", RemoteURLParseError{Input: original, Message: invalidRemoteURLMessageConstant}
	}
	return strings.ToLower(authority), nil
}

func hostFromSCPRemote(remote string) (string, error) {
	userIndex := strings.Index(remote, sshUserDelimiterConstant)
	hostAndPath := remote[userIndex+1:]
	pathIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	if pathIndex <= 0 {
		return "", RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	return strings.ToLower(hostAndPath[:pathIndex]), nil
}

// HostMatchesAllowList reports whether host equals an allow-list entry or is a
// subdomain of one.
//
// Matching is anchored at label boundaries so a spoofed host such as
// evilgithub.com never matches the github.com entry.
func HostMatchesAllowList(host string, allowList []string) bool {
	normalizedHost := strings.ToLower(strings.TrimSpace(host))
	if len(normalizedHost) == 0 {
		return false
	}
	for _, allowedHost := range allowList {
		normalizedAllowed := strings.ToLower(strings.TrimSpace(allowedHost))
		if len(normalizedAllowed) == 0 {
			continue
		}
		if normalizedHost == normalizedAllowed {
			return true
		}
		if strings.HasSuffix(normalizedHost, hostLabelDelimiterConstant+normalizedAllowed) {
			return true
		}
	}
	return false
}
