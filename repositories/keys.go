package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key layout. Secondary indices live under "idx:" so that scans over
// entity prefixes never pick them up.
//
//	user:{userID}                          user record
//	idx:extid:{externalIdentityKey}        -> userID
//	conv:{conversationID}                  conversation record
//	member:{conversationID}:{userID}       membership record
//	idx:membership:{userID}:{convID}       -> conversationID
//	pair:{loUserID}:{hiUserID}             -> conversationID (direct dedup)
//	msg:{convID}:{timestamp}:{messageID}   message record
//	idx:msg:{messageID}                    -> full message key
//	typing:{conversationID}:{userID}       typing record

func userKey(id uuid.UUID) []byte {
	return []byte("user:" + id.String())
}

func externalIdentityKey(externalKey string) []byte {
	return []byte("idx:extid:" + externalKey)
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

func membershipKey(conversationID, userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", conversationID, userID))
}

func membershipIndexKey(userID, conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("idx:membership:%s:%s", userID, conversationID))
}

// pairKey identifies the unordered (userA, userB) pair of a direct
// conversation. Ordering the two ids lexicographically makes the key
// identical from both sides.
func pairKey(a, b uuid.UUID) []byte {
	lo, hi := a.String(), b.String()
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return []byte(fmt.Sprintf("pair:%s:%s", lo, hi))
}

// messageKey embeds a 19-digit zero-padded UnixNano so that
// lexicographic order equals chronological order, with the message ID
// as collision disconnector for same-nanosecond inserts.
func messageKey(conversationID uuid.UUID, at time.Time, messageID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, at.UnixNano(), messageID))
}

func messagePrefix(conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", conversationID))
}

func messageIndexKey(messageID uuid.UUID) []byte {
	return []byte("idx:msg:" + messageID.String())
}

func typingKey(conversationID, userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("typing:%s:%s", conversationID, userID))
}

func typingPrefix(conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("typing:%s:", conversationID))
}
