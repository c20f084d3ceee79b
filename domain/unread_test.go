package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_UnreadCount_Watermark(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	at := time.Now().UTC()

	messages := []Message{
		{ID: uuid.New(), SenderID: bob, CreatedAt: at},
		{ID: uuid.New(), SenderID: alice, CreatedAt: at.Add(1 * time.Minute)},
		{ID: uuid.New(), SenderID: bob, CreatedAt: at.Add(2 * time.Minute)},
		{ID: uuid.New(), SenderID: bob, CreatedAt: at.Add(3 * time.Minute)},
	}

	tests := []struct {
		name     string
		lastSeen uuid.UUID
		want     int
	}{
		{name: "never read counts everything from others", lastSeen: uuid.Nil, want: 3},
		{name: "seen first message", lastSeen: messages[0].ID, want: 2},
		{name: "own message as watermark", lastSeen: messages[1].ID, want: 2},
		{name: "caught up", lastSeen: messages[3].ID, want: 0},
		{name: "watermark gone from log", lastSeen: uuid.New(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			membership := Membership{UserID: alice, LastSeenMessageID: tt.lastSeen}
			require.Equal(t, tt.want, UnreadCount(membership, messages))
		})
	}
}

func Test_UnreadCount_EmptyConversation(t *testing.T) {
	membership := Membership{UserID: uuid.New()}
	require.Zero(t, UnreadCount(membership, nil))
}
