package logger

import (
	"regexp"
	"strings"
)

const redacted = "[redacted]"

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Free-text fields can carry health or personal details and are never logged.
var freeTextKeys = []string{"title", "note", "comment", "secret", "token", "password"}

// RedactEmail keeps the first two characters of the local part and the domain:
// "jane.doe@example.com" becomes "ja***@example.com". Local parts of two
// characters or fewer are fully masked.
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 || strings.Count(addr, "@") != 1 {
		return "***@***"
	}
	local, domain := addr[:at], addr[at+1:]
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range freeTextKeys {
		if strings.Contains(key, k) {
			return redacted
		}
	}
	if strings.Contains(key, "email") || strings.Contains(key, "recipient") {
		return RedactEmail(val)
	}
	// Subject ids are often e-mail addresses in imported data.
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
