package domain

import (
	"fmt"
	"strings"
)

// Query is a store search built from the predicates the store understands:
// is:unread and from:"<literal>".
type Query struct {
	Unread bool
	From   string
	// Raw is appended verbatim after the structured predicates.
	Raw string
}

// UnreadQuery matches every unread message.
func UnreadQuery() Query { return Query{Unread: true} }

// FromQuery matches every message from the literal sender, read or unread.
// A sender with an empty literal is rejected with ErrEmptySender: its query
// would match the whole mailbox.
func FromQuery(sender SenderKey) (Query, error) {
	if !sender.Searchable() {
		return Query{}, fmt.Errorf("%w: %q", ErrEmptySender, string(sender))
	}
	return Query{From: string(sender)}, nil
}

// String renders the space-joined query.
func (q Query) String() string {
	var parts []string
	if q.Unread {
		parts = append(parts, "is:unread")
	}
	if from := SenderKey(q.From).Literal(); from != "" {
		parts = append(parts, `from:"`+from+`"`)
	}
	if raw := strings.TrimSpace(q.Raw); raw != "" {
		parts = append(parts, raw)
	}
	return strings.Join(parts, " ")
}
