package openai

import (
	"fmt"
	"net/url"
	"strings"
)

var defaultAllowedSuffixes = []string{
	".openai.azure.com",
	".cognitiveservices.azure.com",
}

// ValidateEndpoint checks an Azure OpenAI endpoint URL before any credential
// is sent to it: https only, a bare host, and a hostname under one of the
// allowed suffixes. allowedSuffixes overrides the default Azure domains for
// private or proxied deployments.
func ValidateEndpoint(endpoint string, allowedSuffixes []string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint is required (set AZURE_OPENAI_ENDPOINT)")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: absolute URL with host is required", endpoint)
	}
	if u.User != nil {
		return fmt.Errorf("invalid endpoint %q: userinfo is not allowed", endpoint)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid endpoint %q: query and fragment are not allowed", endpoint)
	}
	if strings.ToLower(u.Scheme) != "https" {
		return fmt.Errorf("invalid endpoint %q: https is required", endpoint)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid endpoint %q: host is required", endpoint)
	}

	for _, suffix := range normalizeSuffixes(allowedSuffixes) {
		if strings.HasSuffix(host, suffix) {
			return nil
		}
	}
	return fmt.Errorf("invalid endpoint %q: host %q is not an allowed endpoint domain", endpoint, host)
}

func normalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		v := strings.ToLower(strings.TrimSpace(s))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return defaultAllowedSuffixes
	}
	return out
}
