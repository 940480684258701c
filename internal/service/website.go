package service

import "strings"

// NormalizeWebsite prefixes https:// when the visitor typed a bare domain.
func NormalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	lower := strings.ToLower(website)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return website
	}
	return "https://" + website
}
