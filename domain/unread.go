package domain

import "github.com/google/uuid"

// UnreadCount derives the number of unread messages for a membership
// from the conversation's full message log. LastSeenMessageID is the
// watermark: everything strictly after it from another sender counts.
// A nil watermark means nothing was ever read. The count is recomputed
// on every call, so it is always consistent with the log.
func UnreadCount(membership Membership, messages []Message) int {
	if membership.LastSeenMessageID == uuid.Nil {
		return countFromOthers(membership.UserID, messages, nil)
	}

	var seen *Message
	for i := range messages {
		if messages[i].ID == membership.LastSeenMessageID {
			seen = &messages[i]
			break
		}
	}
	// Watermark points at a message no longer in the log: nothing to count.
	if seen == nil {
		return 0
	}
	return countFromOthers(membership.UserID, messages, seen)
}

func countFromOthers(userID uuid.UUID, messages []Message, after *Message) int {
	count := 0
	for _, m := range messages {
		if m.SenderID == userID {
			continue
		}
		if after != nil && !m.CreatedAt.After(after.CreatedAt) {
			continue
		}
		count++
	}
	return count
}
