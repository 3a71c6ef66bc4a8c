package app

import (
	"net/url"
	"strings"
)

var unsubscribeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// SplitUnsubscribeHeader returns every value in a List-Unsubscribe header
// with surrounding whitespace and angle brackets removed. Empty values are
// dropped.
func SplitUnsubscribeHeader(header string) []string {
	var values []string
	for _, part := range strings.Split(header, ",") {
		v := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "<>"))
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// ExtractUnsubscribeLink returns the first http, https or mailto value in a
// List-Unsubscribe header.
func ExtractUnsubscribeLink(header string) (string, bool) {
	for _, v := range SplitUnsubscribeHeader(header) {
		if isUnsubscribeLink(v) {
			return v, true
		}
	}
	return "", false
}

func isUnsubscribeLink(v string) bool {
	u, err := url.Parse(v)
	if err != nil || !unsubscribeSchemes[strings.ToLower(u.Scheme)] {
		return false
	}
	if strings.EqualFold(u.Scheme, "mailto") {
		return u.Opaque != "" || u.Path != ""
	}
	return u.Host != ""
}
