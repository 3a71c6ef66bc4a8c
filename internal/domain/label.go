package domain

import "fmt"

// LabelUnread is the system label whose presence marks a message unread.
const LabelUnread = "UNREAD"

// LabelState is the read state a bulk mutation drives messages towards.
type LabelState int

const (
	Read LabelState = iota
	Unread
)

func (s LabelState) String() string {
	switch s {
	case Read:
		return "read"
	case Unread:
		return "unread"
	}
	return fmt.Sprintf("LabelState(%d)", int(s))
}

// LabelChanges returns the label ids to add and remove so a message ends up
// in state s. Applying them to a message already in s is a no-op.
func (s LabelState) LabelChanges() (add, remove []string) {
	if s == Unread {
		return []string{LabelUnread}, nil
	}
	return nil, []string{LabelUnread}
}

// ParseLabelState parses "read" or "unread".
func ParseLabelState(s string) (LabelState, error) {
	switch s {
	case "read":
		return Read, nil
	case "unread":
		return Unread, nil
	}
	return Read, fmt.Errorf("unknown label state %q (use read or unread)", s)
}
