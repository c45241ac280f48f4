package collector

import (
	"strings"
)

// RequiredScopes are the classic OAuth scopes a snapshot needs
var RequiredScopes = []string{"read:org", "read:user", "repo"}

// scopeImplies lists broader scopes that grant a required one
var scopeImplies = map[string][]string{
	"read:org":  {"write:org", "admin:org"},
	"read:user": {"user"},
}

// ParseScopes splits an X-OAuth-Scopes header value
func ParseScopes(header string) []string {
	var scopes []string
	for _, s := range strings.Split(header, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// MissingScopes returns the required scopes not granted by granted
func MissingScopes(granted []string) []string {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}

	var missing []string
	for _, req := range RequiredScopes {
		if have[req] {
			continue
		}
		implied := false
		for _, broader := range scopeImplies[req] {
			if have[broader] {
				implied = true
				break
			}
		}
		if !implied {
			missing = append(missing, req)
		}
	}
	return missing
}
