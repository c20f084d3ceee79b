package repositories

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a decoded badger row, used by the inspect CLI.
type Entry struct {
	Kind      string
	EntityID  string
	Timestamp string
	Detail    string
}

// DescribeEntry decodes a raw row according to its key prefix. Index
// rows are described by their target since their values are plain ids.
func DescribeEntry(key string, value []byte) (Entry, error) {
	switch {
	case strings.HasPrefix(key, "user:"):
		var d diskUser
		if err := decode(value, &d); err != nil {
			return Entry{}, err
		}
		return Entry{
			Kind:     "USER",
			EntityID: d.ID,
			Detail:   fmt.Sprintf("%s <%s> online=%t", d.Name, d.Email, d.Online),
		}, nil
	case strings.HasPrefix(key, "conv:"):
		var d diskConversation
		if err := decode(value, &d); err != nil {
			return Entry{}, err
		}
		detail := "direct"
		if d.IsGroup {
			detail = "group " + d.GroupName
		}
		return Entry{
			Kind:      "CONVERSATION",
			EntityID:  d.ID,
			Timestamp: formatNano(d.LastMessageAt),
			Detail:    detail,
		}, nil
	case strings.HasPrefix(key, "member:"):
		var d diskMembership
		if err := decode(value, &d); err != nil {
			return Entry{}, err
		}
		return Entry{
			Kind:     "MEMBERSHIP",
			EntityID: d.ID,
			Detail:   fmt.Sprintf("user=%s lastSeen=%s", d.UserID, d.LastSeen),
		}, nil
	case strings.HasPrefix(key, "msg:"):
		var d diskMessage
		if err := decode(value, &d); err != nil {
			return Entry{}, err
		}
		return Entry{
			Kind:      "MESSAGE",
			EntityID:  d.ID,
			Timestamp: formatNano(d.At),
			Detail:    fmt.Sprintf("%s deleted=%t reactions=%d", d.Type, d.Deleted, len(d.Reactions)),
		}, nil
	case strings.HasPrefix(key, "typing:"):
		var d diskTyping
		if err := decode(value, &d); err != nil {
			return Entry{}, err
		}
		return Entry{
			Kind:      "TYPING",
			EntityID:  d.UserID,
			Timestamp: formatNano(d.LastTypedAt),
		}, nil
	default:
		return Entry{Kind: "INDEX", Detail: string(value)}, nil
	}
}

func formatNano(nano int64) string {
	if nano == 0 {
		return ""
	}
	return time.Unix(0, nano).UTC().Format(time.RFC3339)
}
