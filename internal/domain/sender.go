package domain

import "strings"

// MessageRef identifies a message in the remote store.
type MessageRef struct {
	ID string
}

// SenderKey is the raw From header value. It is used verbatim, so headers
// differing only in quoting or casing are distinct senders.
type SenderKey string

// Literal is the key as it is placed inside a from:"..." predicate. Double
// quotes are dropped because the store grammar cannot escape them.
func (k SenderKey) Literal() string {
	return strings.TrimSpace(strings.ReplaceAll(string(k), `"`, ""))
}

// Searchable reports whether k scopes a from: query to anything at all.
func (k SenderKey) Searchable() bool { return k.Literal() != "" }

// SenderAggregate is the running count and representative unsubscribe link
// for one sender within a sample.
type SenderAggregate struct {
	Key             SenderKey
	Count           int
	UnsubscribeLink string
}

// HasUnsubscribeLink reports whether a link was recorded for the sender.
func (a SenderAggregate) HasUnsubscribeLink() bool {
	return a.UnsubscribeLink != ""
}

// IDs returns the raw ids of refs.
func IDs(refs []MessageRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
