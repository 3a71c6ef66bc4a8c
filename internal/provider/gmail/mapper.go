package gmail

import (
	"net/textproto"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) (string, bool) {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// pickHeaders returns the first value of each requested header, keyed by
// canonical MIME name. Headers the message lacks are left out.
func pickHeaders(headers []*gmailapi.MessagePartHeader, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := findHeader(headers, name); ok {
			out[textproto.CanonicalMIMEHeaderKey(name)] = v
		}
	}
	return out
}
